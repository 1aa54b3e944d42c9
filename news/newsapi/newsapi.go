package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/news"
)

const dateLayout = "2006-01-02"

// Client talks to the NewsAPI /v2/everything endpoint.
type Client struct {
	apiKey   string
	endpoint string
	language string
	pageSize int
	limiter  *rate.Limiter
	client   *http.Client
	logger   *log.Logger
}

// New creates a NewsAPI client from config.
func New(cfg config.NewsAPIConfig) *Client {
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: cfg.Endpoint,
		language: cfg.Language,
		pageSize: cfg.PageSize,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), cfg.Burst),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   log.New(log.Writer(), "[NEWSAPI] ", log.LstdFlags),
	}
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
}

// Fetch walks result pages until the article limit or the result set is
// exhausted. Whole pages are kept, so the outcome may exceed
// query.MaxArticles. A failure on a later page keeps what was already
// collected and marks the result partial.
func (c *Client) Fetch(ctx context.Context, query models.Query) (news.Result, error) {
	if c.apiKey == "" {
		return news.Result{}, news.NewFetchError(news.KindAuth, errors.New("newsapi key not configured"))
	}

	var collected []news.RawArticle
	page := 1
	for {
		batch, total, err := c.fetchPage(ctx, query, page)
		if err != nil {
			if len(collected) == 0 {
				return news.Result{}, err
			}
			ferr, _ := news.AsFetchError(err)
			c.logger.Printf("page %d failed, keeping %d articles: %v", page, len(collected), err)
			return news.Result{Articles: collected, Partial: true, Cause: ferr}, nil
		}

		collected = append(collected, batch...)
		if len(batch) == 0 || len(collected) >= query.MaxArticles || page*c.pageSize >= total {
			return news.Result{Articles: collected}, nil
		}
		page++
	}
}

func (c *Client) fetchPage(ctx context.Context, query models.Query, page int) ([]news.RawArticle, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, news.NewFetchError(news.KindNetwork, err)
	}

	params := url.Values{}
	params.Set("q", query.Text)
	if c.language != "" {
		params.Set("language", c.language)
	}
	if !query.DateFrom.IsZero() {
		params.Set("from", query.DateFrom.UTC().Format(dateLayout))
	}
	if !query.DateTo.IsZero() {
		params.Set("to", query.DateTo.UTC().Format(dateLayout))
	}
	params.Set("sortBy", sortParam(query.SortMode))
	if len(query.SourceFilter) > 0 {
		params.Set("domains", strings.Join(query.SourceFilter, ","))
	}
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, news.NewFetchError(news.KindProvider, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, news.NewFetchError(news.KindNetwork, err)
	}
	body, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, 0, news.NewFetchError(news.KindNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, news.NewFetchError(news.KindAuth, fmt.Errorf("newsapi status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		ferr := news.NewFetchError(news.KindRateLimited, fmt.Errorf("newsapi status %d", resp.StatusCode))
		ferr.RetryAfter = retryAfter(resp)
		return nil, 0, ferr
	case resp.StatusCode != http.StatusOK:
		return nil, 0, news.NewFetchError(news.KindProvider, fmt.Errorf("newsapi status %d", resp.StatusCode))
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, 0, news.NewFetchError(news.KindProvider, fmt.Errorf("decoding newsapi response: %w", err))
	}
	if decoded.Status != "ok" {
		return nil, 0, news.NewFetchError(classifyCode(decoded.Code), fmt.Errorf("newsapi %s: %s", decoded.Code, decoded.Message))
	}

	articles := make([]news.RawArticle, 0, len(decoded.Articles))
	for _, a := range decoded.Articles {
		articles = append(articles, news.RawArticle{
			Source:      a.Source.Name,
			Author:      a.Author,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		})
	}
	return articles, decoded.TotalResults, nil
}

func sortParam(mode models.SortMode) string {
	if mode == models.SortRelevance {
		return "relevancy"
	}
	// Local ranking reorders anyway; publishedAt gives the provider-side
	// ordering the date and source modes start from.
	return "publishedAt"
}

func classifyCode(code string) news.ErrorKind {
	switch {
	case code == "rateLimited":
		return news.KindRateLimited
	case strings.HasPrefix(code, "apiKey"):
		return news.KindAuth
	default:
		return news.KindProvider
	}
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

package enrich

import (
	"context"
	"fmt"
	"log"
	"net/http"
	nurl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

const userAgent = "NewsResearchTool/1.0 (+https://github.com/agcreativegroup/News-Research-Tool)"

// Fetcher retrieves the rendered HTML of a page.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Enricher replaces the thin provider summaries of the top ranked
// articles with readability-extracted page text. Every failure leaves
// the affected article untouched, so enrichment can only improve a
// corpus.
type Enricher struct {
	fetcher  Fetcher
	topN     int
	maxChars int
	timeout  time.Duration
	logger   *log.Logger
}

func New(cfg config.EnrichmentConfig) *Enricher {
	var fetcher Fetcher
	switch cfg.Fetcher {
	case "chromedp":
		fetcher = &chromeFetcher{}
	default:
		fetcher = &httpFetcher{client: &http.Client{Timeout: cfg.Timeout}}
	}
	return &Enricher{
		fetcher:  fetcher,
		topN:     cfg.TopN,
		maxChars: cfg.MaxChars,
		timeout:  cfg.Timeout,
		logger:   log.New(log.Writer(), "[ENRICH] ", log.LstdFlags),
	}
}

// NewWithFetcher builds an enricher around a caller-supplied fetcher.
func NewWithFetcher(cfg config.EnrichmentConfig, fetcher Fetcher) *Enricher {
	e := New(cfg)
	e.fetcher = fetcher
	return e
}

func (e *Enricher) Enrich(ctx context.Context, articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	copy(out, articles)

	n := e.topN
	if n <= 0 || n > len(out) {
		n = len(out)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := e.extract(ctx, out[i].URL)
			if err != nil {
				e.logger.Printf("skipping %s: %v", out[i].URL, err)
				return
			}
			if text != "" {
				out[i].Content = text
			}
		}(i)
	}
	wg.Wait()
	return out
}

func (e *Enricher) extract(ctx context.Context, rawURL string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := e.fetcher.FetchHTML(cctx, rawURL)
	if err != nil {
		return "", err
	}

	page, err := readability.FromReader(strings.NewReader(html), parseURL(rawURL))
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	text := strings.Join(strings.Fields(page.TextContent), " ")
	if e.maxChars > 0 && len(text) > e.maxChars {
		text = text[:e.maxChars]
	}
	return text, nil
}

func parseURL(raw string) *nurl.URL {
	u, err := nurl.Parse(raw)
	if err != nil {
		return &nurl.URL{}
	}
	return u
}

type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	body, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return string(body), nil
}

// chromeFetcher renders the page in headless Chrome before extraction,
// for sites that assemble their articles client side.
type chromeFetcher struct{}

func (f *chromeFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

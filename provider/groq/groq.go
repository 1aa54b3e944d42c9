package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/provider"
)

// Client talks to the Groq OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey      string
	endpoint    string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *log.Logger
}

// New creates a Groq client from config.
func New(cfg config.LLMConfig) *Client {
	return &Client{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		endpoint:    cfg.Endpoint,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      log.New(log.Writer(), "[GROQ] ", log.LstdFlags),
	}
}

// message represents a message in a conversation
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a chat completions request
type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// response represents a chat completions response
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends prompt to model and returns the completion text.
func (c *Client) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", provider.NewError(provider.KindUnavailable, model, errors.New("groq api key not configured"))
	}

	requestBody := request{
		Model:       model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", provider.NewError(provider.KindUnavailable, model, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", provider.NewError(provider.KindUnavailable, model, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Printf("requesting completion: model=%s prompt=%d chars", model, len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", provider.NewError(provider.KindTimeout, model, err)
		}
		return "", provider.NewError(provider.KindUnavailable, model, err)
	}
	body, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return "", provider.NewError(provider.KindUnavailable, model, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return "", provider.NewError(provider.KindTimeout, model, fmt.Errorf("groq status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return "", provider.NewError(provider.KindUnavailable, model, fmt.Errorf("groq status %d: %s", resp.StatusCode, errorDetail(body)))
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", provider.NewError(provider.KindMalformed, model, fmt.Errorf("failed to parse response: %w", err))
	}
	if decoded.Error != nil {
		return "", provider.NewError(provider.KindUnavailable, model, fmt.Errorf("groq %s: %s", decoded.Error.Type, decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", provider.NewError(provider.KindMalformed, model, errors.New("no choices in response"))
	}
	return decoded.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// errorDetail pulls the provider message out of an error body for logs.
func errorDetail(body []byte) string {
	var decoded response
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != nil {
		return decoded.Error.Message
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}

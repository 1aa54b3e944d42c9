package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

// ErrorKind classifies a news-provider failure.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindAuth        ErrorKind = "auth_error"
	KindNetwork     ErrorKind = "network_error"
	KindProvider    ErrorKind = "provider_error"
)

// FetchError is a categorized news-provider failure. Message is safe to
// show to consumers; the raw provider error stays behind Unwrap for logs.
type FetchError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
	cause      error
}

// NewFetchError wraps cause under a categorized, presentable message.
func NewFetchError(kind ErrorKind, cause error) *FetchError {
	msg := "news provider error"
	switch kind {
	case KindRateLimited:
		msg = "news provider rate limit reached"
	case KindAuth:
		msg = "news provider rejected the API key"
	case KindNetwork:
		msg = "news provider unreachable"
	}
	return &FetchError{Kind: kind, Message: msg, cause: cause}
}

func (e *FetchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.cause }

// Retryable reports whether a single further attempt may succeed.
func (e *FetchError) Retryable() bool { return e.Kind != KindAuth }

// Backoff returns how long to wait before that attempt. Rate limits wait
// for the provider-reported reset when one was given.
func (e *FetchError) Backoff(fallback time.Duration) time.Duration {
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		return e.RetryAfter
	}
	return fallback
}

// AsFetchError unwraps err into a *FetchError when it carries one.
func AsFetchError(err error) (*FetchError, bool) {
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return ferr, true
	}
	return nil, false
}

// RawArticle is an article as the provider returned it, before
// normalization assigns identity and drops incomplete entries.
type RawArticle struct {
	Source      string    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content"`
}

// Result is a fetch outcome. Partial is set when pagination stopped on an
// error after at least one page was kept; Cause then records why.
type Result struct {
	Articles []RawArticle
	Partial  bool
	Cause    *FetchError
}

// Provider fetches raw articles for a query. Implementations keep whole
// pages, so more than query.MaxArticles entries may come back.
type Provider interface {
	Fetch(ctx context.Context, query models.Query) (Result, error)
}

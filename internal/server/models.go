package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse returns the current authenticated user id.
type MeResponse struct {
	UserID string `json:"user_id"`
}

// ResearchRequest represents a research run payload. Dates accept
// YYYY-MM-DD or RFC3339; empty dates fall back to the configured
// trailing window.
type ResearchRequest struct {
	Query       string   `json:"query"`
	DateFrom    string   `json:"date_from,omitempty"`
	DateTo      string   `json:"date_to,omitempty"`
	MaxArticles int      `json:"max_articles,omitempty"`
	Sort        string   `json:"sort,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// ToQuery converts the request into a pipeline query.
func (r ResearchRequest) ToQuery() (models.Query, error) {
	from, err := parseDate(r.DateFrom)
	if err != nil {
		return models.Query{}, fmt.Errorf("date_from: %w", err)
	}
	to, err := parseDate(r.DateTo)
	if err != nil {
		return models.Query{}, fmt.Errorf("date_to: %w", err)
	}
	return models.Query{
		Text:         r.Query,
		DateFrom:     from,
		DateTo:       to,
		MaxArticles:  r.MaxArticles,
		SortMode:     models.SortMode(r.Sort),
		SourceFilter: r.Sources,
		Model:        r.Model,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return ts.UTC(), nil
}

// ModelsResponse lists the models a run may select.
type ModelsResponse struct {
	Default string   `json:"default"`
	Models  []string `json:"models"`
}

package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

// page wraps marker into an article body long enough for readability's
// content scoring to keep it.
func page(marker string) string {
	filler := `The company reported results ahead of consensus, with deliveries,
revenue and gross margin all coming in above the published estimates, while
management guided cautiously for the coming year and flagged continued price
competition across its main markets.`
	var b strings.Builder
	b.WriteString(`<html><head><title>t</title></head><body><article>`)
	b.WriteString("<p>" + marker + "</p>")
	for i := 0; i < 5; i++ {
		b.WriteString("<p>" + filler + "</p>")
	}
	b.WriteString(`</article></body></html>`)
	return b.String()
}

type scriptedFetcher struct {
	mu    sync.Mutex
	calls []string
	pages map[string]string
	err   error
}

func (f *scriptedFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("no such page")
	}
	return html, nil
}

func (f *scriptedFetcher) seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func enrichConfig(topN int) config.EnrichmentConfig {
	return config.EnrichmentConfig{
		Enabled:  true,
		Fetcher:  "http",
		TopN:     topN,
		MaxChars: 6000,
		Timeout:  time.Second,
	}
}

func corpus(urls ...string) []models.Article {
	out := make([]models.Article, 0, len(urls))
	for i, u := range urls {
		out = append(out, models.Article{
			ID:      string(rune('a' + i)),
			Title:   "article " + string(rune('a'+i)),
			Summary: "thin provider summary",
			URL:     u,
		})
	}
	return out
}

func TestEnrichUpgradesTopArticles(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]string{
		"https://reuters.com/a":   page("Full reuters body with real detail about the quarter."),
		"https://bloomberg.com/b": page("Full bloomberg body covering margins at length."),
	}}
	e := NewWithFetcher(enrichConfig(2), fetcher)

	articles := corpus("https://reuters.com/a", "https://bloomberg.com/b", "https://cnbc.com/c")
	got := e.Enrich(context.Background(), articles)

	if len(got) != 3 {
		t.Fatalf("expected the corpus size preserved, got %d", len(got))
	}
	if !strings.Contains(got[0].Content, "Full reuters body") {
		t.Fatalf("expected extracted content on the first article, got %q", got[0].Content)
	}
	if !strings.Contains(got[1].Content, "Full bloomberg body") {
		t.Fatalf("expected extracted content on the second article, got %q", got[1].Content)
	}
	if got[2].Content != "" {
		t.Fatalf("article beyond top_n must stay untouched, got %q", got[2].Content)
	}
	if fetcher.seen() != 2 {
		t.Fatalf("expected 2 fetches, got %d", fetcher.seen())
	}
	if articles[0].Content != "" {
		t.Fatal("enrichment must not mutate the input slice")
	}
}

func TestEnrichLeavesArticlesOnFailure(t *testing.T) {
	fetcher := &scriptedFetcher{err: errors.New("connection reset")}
	e := NewWithFetcher(enrichConfig(2), fetcher)

	articles := corpus("https://reuters.com/a")
	got := e.Enrich(context.Background(), articles)

	if got[0].Content != "" {
		t.Fatalf("a failed fetch must leave the article untouched, got %q", got[0].Content)
	}
	if got[0].Summary != "thin provider summary" {
		t.Fatalf("summary changed: %q", got[0].Summary)
	}
}

func TestEnrichCapsExtractedText(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("verbose body text ", 200))
	fetcher := &scriptedFetcher{pages: map[string]string{
		"https://reuters.com/a": page(long),
	}}
	cfg := enrichConfig(1)
	cfg.MaxChars = 100
	e := NewWithFetcher(cfg, fetcher)

	got := e.Enrich(context.Background(), corpus("https://reuters.com/a"))
	if len(got[0].Content) == 0 || len(got[0].Content) > 100 {
		t.Fatalf("expected content capped at 100 chars, got %d", len(got[0].Content))
	}
}

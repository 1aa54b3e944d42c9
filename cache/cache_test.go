package cache

import (
	"testing"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

func baseQuery() models.Query {
	return models.Query{
		Text:         "Tesla Q4 earnings",
		DateFrom:     time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		DateTo:       time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC),
		MaxArticles:  15,
		SortMode:     models.SortRelevance,
		SourceFilter: []string{"reuters.com", "bloomberg.com"},
		Model:        "openai/gpt-oss-120b",
	}
}

func TestKeyNormalizesEquivalentQueries(t *testing.T) {
	a := baseQuery()

	b := baseQuery()
	b.Text = "  tesla   Q4   EARNINGS "
	b.SourceFilter = []string{"Bloomberg.com", "REUTERS.com"}

	if Key(a) != Key(b) {
		t.Fatalf("equivalent queries must share a key")
	}
}

func TestKeyIgnoresMaxArticlesAndModel(t *testing.T) {
	a := baseQuery()

	b := baseQuery()
	b.MaxArticles = 50
	b.Model = "llama-3.1-8b-instant"

	if Key(a) != Key(b) {
		t.Fatalf("max articles and model must not affect the key")
	}
}

func TestKeySeparatesDistinctQueries(t *testing.T) {
	a := baseQuery()

	text := baseQuery()
	text.Text = "Apple Q4 earnings"
	if Key(a) == Key(text) {
		t.Fatalf("different text must change the key")
	}

	sorted := baseQuery()
	sorted.SortMode = models.SortDate
	if Key(a) == Key(sorted) {
		t.Fatalf("different sort mode must change the key")
	}

	dates := baseQuery()
	dates.DateTo = dates.DateTo.AddDate(0, 0, 1)
	if Key(a) == Key(dates) {
		t.Fatalf("different date range must change the key")
	}

	filtered := baseQuery()
	filtered.SourceFilter = nil
	if Key(a) == Key(filtered) {
		t.Fatalf("different source filter must change the key")
	}
}

package research

import (
	"testing"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

func article(id, title, source, url string, published time.Time) models.Article {
	return models.Article{
		ID:          id,
		Title:       title,
		Summary:     "summary of " + title,
		Source:      source,
		URL:         url,
		PublishedAt: published,
	}
}

func TestRankDateMode(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		article("b", "older", "Reuters", "https://reuters.com/1", base.Add(-2*time.Hour)),
		article("c", "tied late", "Reuters", "https://reuters.com/2", base),
		article("a", "tied early", "Reuters", "https://reuters.com/3", base),
	}

	got := Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate})
	wantIDs := []string{"a", "c", "b"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d: got %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestRankSourceMode(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		article("a", "one", "reuters", "https://reuters.com/1", base),
		article("b", "two", "AP", "https://apnews.com/1", base),
		article("c", "three", "Bloomberg", "https://bloomberg.com/1", base),
		article("d", "four", "AP", "https://apnews.com/2", base.Add(time.Hour)),
	}

	got := Rank(corpus, models.Query{Text: "x", SortMode: models.SortSource})
	wantIDs := []string{"d", "b", "c", "a"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d: got %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestRankRelevanceMode(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		{ID: "d", Title: "Unrelated piece", Summary: "nothing shared", Source: "AP", PublishedAt: base},
		{ID: "b", Title: "Tesla update", Summary: "deliveries grew", Source: "AP", PublishedAt: base},
		{ID: "a", Title: "Tesla deliveries surge", Summary: "strong quarter", Source: "AP", PublishedAt: base},
		{ID: "c", Title: "EV market roundup", Summary: "tesla mentioned in passing", Source: "AP", PublishedAt: base},
	}

	got := Rank(corpus, models.Query{Text: "Tesla deliveries", SortMode: models.SortRelevance})
	wantIDs := []string{"a", "b", "c", "d"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d: got %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestRankRelevanceTiesPreferNewer(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		{ID: "older", Title: "Tesla news", Summary: "", Source: "AP", PublishedAt: base.Add(-time.Hour)},
		{ID: "newer", Title: "Tesla news again", Summary: "", Source: "AP", PublishedAt: base},
	}

	got := Rank(corpus, models.Query{Text: "tesla", SortMode: models.SortRelevance})
	if got[0].ID != "newer" {
		t.Fatalf("expected the newer tie to rank first, got %q", got[0].ID)
	}
}

func TestRankAppliesDateRange(t *testing.T) {
	from := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 10, 23, 59, 59, 0, time.UTC)
	corpus := []models.Article{
		article("in", "inside", "AP", "https://apnews.com/1", time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC)),
		article("before", "too old", "AP", "https://apnews.com/2", time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)),
		article("after", "too new", "AP", "https://apnews.com/3", time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)),
	}

	got := Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate, DateFrom: from, DateTo: to})
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("expected only the in-range article, got %v", got)
	}
}

func TestRankSourceFilter(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		article("exact", "Reuters", "Reuters", "https://reuters.com/1", base),
		article("sub", "Reuters", "Reuters", "https://www.reuters.com/2", base),
		article("name", "Reuters", "Reuters", "https://syndication.example.com/3", base),
		article("other", "Bloomberg", "Bloomberg", "https://bloomberg.com/1", base),
	}

	got := Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate, SourceFilter: []string{"reuters.com"}})
	if len(got) != 2 {
		t.Fatalf("expected host and subdomain matches, got %d", len(got))
	}

	got = Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate, SourceFilter: []string{"Reuters"}})
	if len(got) != 3 {
		t.Fatalf("expected the source-name fallback to match all Reuters articles, got %d", len(got))
	}

	got = Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate, SourceFilter: []string{"ft.com"}})
	if len(got) != 0 {
		t.Fatalf("expected an empty result, got %d", len(got))
	}
}

func TestRankTruncatesAfterOrdering(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := make([]models.Article, 0, 5)
	for i := 0; i < 5; i++ {
		corpus = append(corpus, article(
			string(rune('a'+i)), "story", "AP", "https://apnews.com/x", base.Add(time.Duration(i)*time.Hour),
		))
	}

	got := Rank(corpus, models.Query{Text: "x", SortMode: models.SortDate, MaxArticles: 2})
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(got))
	}
	if got[0].ID != "e" || got[1].ID != "d" {
		t.Fatalf("expected the two newest after ordering, got %q %q", got[0].ID, got[1].ID)
	}
}

func TestRankDeterministicAcrossInputOrder(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		article("a1", "Tesla deliveries beat", "Reuters", "https://reuters.com/1", base),
		article("a2", "Tesla recall widens", "Bloomberg", "https://bloomberg.com/1", base.Add(-time.Hour)),
		article("a3", "Quiet market day", "AP", "https://apnews.com/1", base.Add(-2*time.Hour)),
		article("a4", "Tesla deliveries preview", "FT", "https://ft.com/1", base),
		article("a5", "Chip supply update", "Reuters", "https://reuters.com/2", base.Add(-3*time.Hour)),
	}
	shuffled := []models.Article{corpus[3], corpus[0], corpus[4], corpus[2], corpus[1]}

	for _, mode := range []models.SortMode{models.SortRelevance, models.SortDate, models.SortSource} {
		query := models.Query{Text: "tesla deliveries", SortMode: mode}
		first := Rank(corpus, query)
		second := Rank(shuffled, query)
		if len(first) != len(second) {
			t.Fatalf("%s: sizes differ", mode)
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("%s: order differs at %d: %q vs %q", mode, i, first[i].ID, second[i].ID)
			}
		}
	}
}

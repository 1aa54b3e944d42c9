package research

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

func promptCorpus(n int) []models.Article {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	corpus := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		corpus = append(corpus, models.Article{
			ID:          string(rune('a' + i)),
			Title:       "Headline number " + string(rune('A'+i)),
			Summary:     strings.TrimSpace(strings.Repeat("word ", 30)),
			Source:      "Reuters",
			PublishedAt: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return corpus
}

func TestBuildPromptTruncatesAtWordBoundary(t *testing.T) {
	corpus := []models.Article{{
		ID:          "a",
		Title:       "Long read",
		Summary:     strings.TrimSpace(strings.Repeat("alpha ", 100)),
		Source:      "Reuters",
		PublishedAt: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}}
	cfg := config.PromptConfig{ArticleCharBudget: 40, CharCeiling: 12000}

	prompt := BuildPrompt(corpus, models.Query{Text: "q"}, cfg)
	if !strings.Contains(prompt, "alpha alpha") {
		t.Fatal("expected truncated summary in prompt")
	}
	if !strings.Contains(prompt, "...") {
		t.Fatal("expected an ellipsis marker on the truncated summary")
	}
	if strings.Contains(prompt, "alph ") || strings.Contains(prompt, "alph...") {
		t.Fatal("summary was cut mid-word")
	}
}

func TestBuildPromptDropsTailUntilCeiling(t *testing.T) {
	corpus := promptCorpus(12)
	loose := config.PromptConfig{ArticleCharBudget: 280, CharCeiling: 100000}
	full := BuildPrompt(corpus, models.Query{Text: "q"}, loose)

	tight := config.PromptConfig{ArticleCharBudget: 280, CharCeiling: utf8.RuneCountInString(full) - 100}
	trimmed := BuildPrompt(corpus, models.Query{Text: "q"}, tight)

	if utf8.RuneCountInString(trimmed) > tight.CharCeiling {
		t.Fatalf("prompt exceeds ceiling: %d > %d", utf8.RuneCountInString(trimmed), tight.CharCeiling)
	}
	if !strings.HasPrefix(full, trimmed) {
		t.Fatal("expected the tight prompt to be a prefix of the loose one")
	}
	if !strings.Contains(trimmed, "\n1. ") {
		t.Fatal("expected the first article to survive")
	}
	if strings.Contains(trimmed, "\n12. ") {
		t.Fatal("expected the last article to be dropped")
	}
}

func TestBuildPromptKeepsAtLeastOneArticle(t *testing.T) {
	corpus := promptCorpus(3)
	cfg := config.PromptConfig{ArticleCharBudget: 280, CharCeiling: 10}

	prompt := BuildPrompt(corpus, models.Query{Text: "q"}, cfg)
	if !strings.Contains(prompt, "\n1. ") {
		t.Fatal("expected the first article to be retained under a tiny ceiling")
	}
	if strings.Contains(prompt, "\n2. ") {
		t.Fatal("expected every later article to be dropped")
	}
}

func TestBuildPromptEmptyCorpus(t *testing.T) {
	cfg := config.PromptConfig{}
	prompt := BuildPrompt(nil, models.Query{Text: "ghost town"}, cfg)
	if prompt == "" {
		t.Fatal("expected a prompt even with no articles")
	}
	if !strings.Contains(prompt, "INSUFFICIENT_DATA") {
		t.Fatal("expected the insufficient-data instruction")
	}
	if !strings.Contains(prompt, "ghost town") {
		t.Fatal("expected the query text to be present")
	}
}

func TestBuildPromptListsArticlesInCorpusOrder(t *testing.T) {
	corpus := promptCorpus(3)
	cfg := config.PromptConfig{ArticleCharBudget: 280, CharCeiling: 100000}

	prompt := BuildPrompt(corpus, models.Query{Text: "q"}, cfg)
	first := strings.Index(prompt, "Headline number A")
	second := strings.Index(prompt, "Headline number B")
	third := strings.Index(prompt, "Headline number C")
	if first < 0 || second < 0 || third < 0 {
		t.Fatal("expected all three headlines in the prompt")
	}
	if !(first < second && second < third) {
		t.Fatal("expected corpus order to be preserved")
	}
	if !strings.Contains(prompt, "[Reuters, 2026-01-10]") {
		t.Fatal("expected source and date metadata per line")
	}
}

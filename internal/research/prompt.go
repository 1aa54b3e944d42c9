package research

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

// Section headers the model is instructed to emit. The parser in this
// package matches the same strings.
const (
	sectionSummary        = "EXECUTIVE SUMMARY"
	sectionImplications   = "MARKET IMPLICATIONS"
	sectionRisk           = "RISK ASSESSMENT"
	sectionRecommendation = "INVESTMENT RECOMMENDATION"
	sectionCredibility    = "NEWS CREDIBILITY"
)

// BuildPrompt renders the analysis prompt for a ranked corpus. Article
// summaries are truncated to the per-article budget at a word boundary,
// and whole articles are dropped from the tail until the prompt fits the
// character ceiling. At least one article is always retained. An empty
// corpus yields a prompt that asks the model to report insufficient
// data, so building never fails.
func BuildPrompt(corpus []models.Article, query models.Query, cfg config.PromptConfig) string {
	cfg = cfg.Normalize()
	if len(corpus) == 0 {
		return insufficientDataPrompt(query)
	}

	header := promptHeader(query) + "\nArticles:\n"
	lines := make([]string, 0, len(corpus))
	for i, a := range corpus {
		lines = append(lines, articleLine(i+1, a, cfg.ArticleCharBudget))
	}

	total := utf8.RuneCountInString(header)
	kept := 0
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if kept > 0 && total+n > cfg.CharCeiling {
			break
		}
		total += n
		kept++
	}

	var b strings.Builder
	b.WriteString(header)
	for _, line := range lines[:kept] {
		b.WriteString(line)
	}
	return b.String()
}

func promptHeader(query models.Query) string {
	var b strings.Builder
	b.WriteString("You are an expert equity research analyst with 15+ years of experience.\n\n")
	fmt.Fprintf(&b, "Research query: %s\n", query.Text)
	if !query.DateFrom.IsZero() || !query.DateTo.IsZero() {
		fmt.Fprintf(&b, "Date range: %s to %s\n", promptDate(query.DateFrom), promptDate(query.DateTo))
	}
	b.WriteString("\nAnalyze the news coverage below and respond in plain text with exactly these sections, each introduced by its header on its own line:\n\n")
	b.WriteString(sectionSummary + "\n")
	b.WriteString(sectionImplications + "\n")
	b.WriteString(sectionRisk + "\n")
	b.WriteString(sectionRecommendation + " (begin the section with a single word: BUY, HOLD, SELL or INSUFFICIENT_DATA, then the rationale)\n")
	b.WriteString(sectionCredibility + "\n")
	return b.String()
}

func insufficientDataPrompt(query models.Query) string {
	var b strings.Builder
	b.WriteString(promptHeader(query))
	b.WriteString("\nNo articles were found for this query in the selected date range. ")
	b.WriteString("State that coverage is insufficient for a judgment and set " + sectionRecommendation + " to INSUFFICIENT_DATA.\n")
	return b.String()
}

func articleLine(n int, a models.Article, budget int) string {
	text := a.Summary
	if a.Content != "" {
		text = a.Content
	}
	text = strings.Join(strings.Fields(text), " ")
	text = helpers.TruncateWords(text, budget)

	date := a.PublishedAt.UTC().Format("2006-01-02")
	if text == "" {
		return fmt.Sprintf("%d. [%s, %s] %s\n", n, a.Source, date, a.Title)
	}
	return fmt.Sprintf("%d. [%s, %s] %s: %s\n", n, a.Source, date, a.Title, text)
}

func promptDate(ts time.Time) string {
	if ts.IsZero() {
		return "open"
	}
	return ts.UTC().Format("2006-01-02")
}

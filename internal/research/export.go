package research

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

// BuildReport renders a plain-text analyst report for a completed run.
func BuildReport(result *models.ResearchResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", 72)

	b.WriteString(rule + "\n")
	b.WriteString("NEWS RESEARCH REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Query:        %s\n", result.Query.Text)
	fmt.Fprintf(&b, "Date range:   %s to %s\n", reportDate(result.Query.DateFrom), reportDate(result.Query.DateTo))
	fmt.Fprintf(&b, "Generated:    %s\n", result.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Run:          %s\n", result.RunID)
	if result.Partial {
		fmt.Fprintf(&b, "Note:         partial corpus (%s)\n", result.PartialReason)
	}
	b.WriteString("\n")

	b.WriteString("COVERAGE\n")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	fmt.Fprintf(&b, "Articles: %d across %d sources", result.Analytics.TotalArticles, result.Analytics.DistinctSources)
	if result.Analytics.TotalArticles > 0 {
		fmt.Fprintf(&b, ", spanning %d day(s)", result.Analytics.SpanDays)
	}
	b.WriteString("\n")
	for _, sc := range result.Analytics.SourceCounts {
		fmt.Fprintf(&b, "  %-32s %d\n", sc.Source, sc.Count)
	}
	b.WriteString("\n")

	if result.Analysis != nil {
		a := result.Analysis
		b.WriteString("ANALYSIS (" + a.Model + ")\n")
		b.WriteString(strings.Repeat("-", 72) + "\n")
		fmt.Fprintf(&b, "Recommendation: %s\n", a.Recommendation)
		if a.Rationale != "" {
			fmt.Fprintf(&b, "Rationale:      %s\n", a.Rationale)
		}
		b.WriteString("\n")
		writeSection(&b, sectionSummary, a.ExecutiveSummary)
		writeSection(&b, sectionImplications, a.MarketImplications)
		writeSection(&b, sectionRisk, a.RiskAssessment)
		writeSection(&b, sectionCredibility, a.Credibility)
	} else if result.AnalysisFailure != nil {
		b.WriteString("ANALYSIS\n")
		b.WriteString(strings.Repeat("-", 72) + "\n")
		b.WriteString(result.AnalysisFailure.Message + "\n\n")
	}

	b.WriteString("ARTICLES\n")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	if len(result.Corpus) == 0 {
		b.WriteString("no articles found\n")
	}
	for i, a := range result.Corpus {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "   %s | %s\n", a.Source, a.PublishedAt.UTC().Format("2006-01-02"))
		fmt.Fprintf(&b, "   %s\n", a.URL)
	}
	return b.String()
}

func writeSection(b *strings.Builder, header, body string) {
	if body == "" {
		return
	}
	b.WriteString(header + "\n")
	b.WriteString(body + "\n\n")
}

func reportDate(ts time.Time) string {
	if ts.IsZero() {
		return "open"
	}
	return ts.UTC().Format("2006-01-02")
}

// BuildCSV renders the corpus as CSV with a header row.
func BuildCSV(result *models.ResearchResult) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"title", "source", "author", "published_at", "url", "summary"}); err != nil {
		return "", err
	}
	for _, a := range result.Corpus {
		record := []string{
			a.Title,
			a.Source,
			a.Author,
			a.PublishedAt.UTC().Format(time.RFC3339),
			a.URL,
			a.Summary,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// BuildJSON marshals the full result, indented for file export.
func BuildJSON(result *models.ResearchResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

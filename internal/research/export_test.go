package research

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

func exportResult() *models.ResearchResult {
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	corpus := []models.Article{
		article("a", "Tesla Q4 earnings beat expectations", "Reuters", "https://reuters.com/tesla-q4", base),
		article("b", "Tesla misses on deliveries", "Bloomberg", "https://bloomberg.com/tesla", base.Add(-time.Hour)),
	}
	return &models.ResearchResult{
		Query:     models.Query{Text: "Tesla Q4 earnings", SortMode: models.SortDate},
		Corpus:    corpus,
		Analytics: Aggregate(corpus),
		Analysis: &models.AnalysisReport{
			Model:            "model-a",
			ExecutiveSummary: "Coverage is constructive.",
			Recommendation:   models.RecommendationHold,
			Rationale:        "margins stabilizing",
			GeneratedAt:      base,
		},
		RunID:       "run-1",
		GeneratedAt: base,
	}
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(exportResult())
	for _, want := range []string{
		"NEWS RESEARCH REPORT",
		"Tesla Q4 earnings",
		"Recommendation: HOLD",
		"Coverage is constructive.",
		"Reuters",
		"https://bloomberg.com/tesla",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report is missing %q", want)
		}
	}
}

func TestBuildReportWithoutAnalysis(t *testing.T) {
	result := exportResult()
	result.Analysis = nil
	result.AnalysisFailure = &models.AnalysisFailure{
		Kind:    "model_timeout",
		Message: "analysis unavailable, showing articles only",
	}

	report := BuildReport(result)
	if !strings.Contains(report, "analysis unavailable, showing articles only") {
		t.Fatal("expected the degradation notice")
	}
	if strings.Contains(report, "Recommendation:") {
		t.Fatal("expected no recommendation block")
	}
}

func TestBuildCSV(t *testing.T) {
	out, err := BuildCSV(exportResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output does not parse as CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "title" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "Reuters" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
}

func TestBuildJSON(t *testing.T) {
	out, err := BuildJSON(exportResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded models.ResearchResult
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output does not parse back: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Corpus) != 2 {
		t.Fatalf("round trip lost data: %+v", decoded)
	}
}

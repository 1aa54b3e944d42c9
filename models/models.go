package models

import (
	"time"
)

// SortMode selects how a fetched corpus is ordered before truncation.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortDate      SortMode = "date"
	SortSource    SortMode = "source"
)

func (m SortMode) Valid() bool {
	switch m {
	case SortRelevance, SortDate, SortSource:
		return true
	}
	return false
}

// Article limits accepted for Query.MaxArticles.
const (
	MinArticleLimit = 5
	MaxArticleLimit = 50
)

type Query struct {
	Text         string    `json:"text"`
	DateFrom     time.Time `json:"date_from"`
	DateTo       time.Time `json:"date_to"`
	MaxArticles  int       `json:"max_articles"`
	SortMode     SortMode  `json:"sort_mode"`
	SourceFilter []string  `json:"source_filter,omitempty"`
	Model        string    `json:"model,omitempty"`
}

type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content,omitempty"`
}

type Recommendation string

const (
	RecommendationBuy              Recommendation = "BUY"
	RecommendationHold             Recommendation = "HOLD"
	RecommendationSell             Recommendation = "SELL"
	RecommendationInsufficientData Recommendation = "INSUFFICIENT_DATA"
)

type AnalysisReport struct {
	Model              string         `json:"model"`
	ExecutiveSummary   string         `json:"executive_summary"`
	MarketImplications string         `json:"market_implications"`
	RiskAssessment     string         `json:"risk_assessment"`
	Recommendation     Recommendation `json:"recommendation"`
	Rationale          string         `json:"rationale,omitempty"`
	Credibility        string         `json:"credibility,omitempty"`
	Raw                string         `json:"raw,omitempty"`
	FallbackUsed       bool           `json:"fallback_used,omitempty"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// AnalysisFailure records why a run finished without an analysis section.
type AnalysisFailure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type TimelineBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Analytics struct {
	TotalArticles     int              `json:"total_articles"`
	DistinctSources   int              `json:"distinct_sources"`
	SourceCounts      []SourceCount    `json:"source_counts"`
	Timeline          []TimelineBucket `json:"timeline"`
	EarliestPublished time.Time        `json:"earliest_published,omitempty"`
	LatestPublished   time.Time        `json:"latest_published,omitempty"`
	SpanDays          int              `json:"span_days"`
}

type ResearchResult struct {
	Query           Query            `json:"query"`
	Corpus          []Article        `json:"corpus"`
	Analysis        *AnalysisReport  `json:"analysis,omitempty"`
	AnalysisFailure *AnalysisFailure `json:"analysis_failure,omitempty"`
	Analytics       Analytics        `json:"analytics"`
	Partial         bool             `json:"partial"`
	PartialReason   string           `json:"partial_reason,omitempty"`
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	FromCache       bool             `json:"from_cache,omitempty"`
}

type RunStage string

const (
	StageFetching    RunStage = "fetching"
	StageNormalizing RunStage = "normalizing"
	StageRanking     RunStage = "ranking"
	StagePrompting   RunStage = "prompting"
	StageAnalyzing   RunStage = "analyzing"
	StageAggregating RunStage = "aggregating"
	StageDone        RunStage = "done"
	StageFailed      RunStage = "failed"
)

type RunStatus struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Stage     RunStage  `json:"stage"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

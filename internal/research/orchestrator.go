package research

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/agcreativegroup/News-Research-Tool/cache"
	"github.com/agcreativegroup/News-Research-Tool/cache/inmemory"
	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/search"
	"github.com/agcreativegroup/News-Research-Tool/internal/telemetry"
	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/news"
	"github.com/agcreativegroup/News-Research-Tool/provider"
)

// Finished run entries stay visible in the status registry for this long.
const runRetention = 10 * time.Minute

// Enricher upgrades ranked articles with fetched full text before
// prompting. Implementations must return articles unchanged on failure.
type Enricher interface {
	Enrich(ctx context.Context, articles []models.Article) []models.Article
}

// Deps carries the boundary implementations a pipeline runs against.
// Telemetry defaults to a fresh registry and Cache to the in-process
// store when left nil. Enricher and History are optional.
type Deps struct {
	Source    news.Provider
	Model     provider.Provider
	Cache     cache.Store
	Enricher  Enricher
	History   *search.History
	Telemetry *telemetry.Telemetry
}

// Orchestrator drives a query through fetch, normalize, rank, prompt,
// analyze and aggregate, caching finished results per query identity.
// Identical queries arriving while one is in flight share that run.
type Orchestrator struct {
	cfg      *config.Config
	source   news.Provider
	analyzer *Analyzer
	cache    cache.Store
	enricher Enricher
	history  *search.History
	tel      *telemetry.Telemetry
	logger   *log.Logger

	flight singleflight.Group

	mu   sync.RWMutex
	runs map[string]*models.RunStatus
}

func New(cfg *config.Config, deps Deps) *Orchestrator {
	conf := *cfg
	conf.Research = conf.Research.Normalize()
	conf.Prompt = conf.Prompt.Normalize()

	tel := deps.Telemetry
	if tel == nil {
		tel = telemetry.New()
	}
	store := deps.Cache
	if store == nil {
		store = inmemory.New()
	}

	return &Orchestrator{
		cfg:      &conf,
		source:   deps.Source,
		analyzer: NewAnalyzer(deps.Model, conf.LLM, tel),
		cache:    store,
		enricher: deps.Enricher,
		history:  deps.History,
		tel:      tel,
		logger:   log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags),
		runs:     make(map[string]*models.RunStatus),
	}
}

// Run executes the pipeline for query. With at least one article
// retrieved the run always completes: a failed analysis degrades to a
// result without a report rather than an error. Only a fetch that
// yields zero articles fails the run.
func (o *Orchestrator) Run(ctx context.Context, query models.Query) (*models.ResearchResult, error) {
	normalized, err := o.prepare(query)
	if err != nil {
		return nil, err
	}

	key := cache.Key(normalized)
	if cached, err := o.cache.Get(ctx, key); err == nil {
		o.tel.RecordCache("hit")
		out := *cached
		out.FromCache = true
		return &out, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		o.logger.Printf("cache read failed: %v", err)
	}
	o.tel.RecordCache("miss")

	v, err, _ := o.flight.Do(key, func() (interface{}, error) {
		return o.execute(ctx, normalized, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ResearchResult), nil
}

// Cached returns the cached result for query without touching external
// services. A nil result with a nil error means no fresh entry exists.
func (o *Orchestrator) Cached(ctx context.Context, query models.Query) (*models.ResearchResult, error) {
	normalized, err := o.prepare(query)
	if err != nil {
		return nil, err
	}
	cached, err := o.cache.Get(ctx, cache.Key(normalized))
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, &PipelineError{Kind: KindCache, Message: "cache unavailable", cause: err}
	}
	out := *cached
	out.FromCache = true
	return &out, nil
}

func (o *Orchestrator) execute(ctx context.Context, query models.Query, key string) (*models.ResearchResult, error) {
	runID := uuid.NewString()
	o.track(runID, query)
	started := time.Now()

	o.setStage(runID, models.StageFetching)
	fetched, ferr := o.fetchWithRetry(ctx, query)
	if ferr != nil {
		o.logger.Printf("run %s failed during fetch: %v", runID, ferr)
		o.finishRun(runID, models.StageFailed, ferr.Message)
		o.tel.RecordFetch("error", 0)
		o.tel.RecordRun("failed", false, time.Since(started))
		return nil, fromFetchError(ferr)
	}
	if fetched.Partial {
		o.tel.RecordFetch("partial", len(fetched.Articles))
	} else {
		o.tel.RecordFetch("ok", len(fetched.Articles))
	}

	o.setStage(runID, models.StageNormalizing)
	articles := Normalize(fetched.Articles)

	o.setStage(runID, models.StageRanking)
	corpus := Rank(articles, query)

	if o.enricher != nil && len(corpus) > 0 {
		corpus = o.enricher.Enrich(ctx, corpus)
	}

	o.setStage(runID, models.StagePrompting)
	prompt := BuildPrompt(corpus, query, o.cfg.Prompt)

	// The corpus is immutable from here on, so analysis and
	// aggregation run concurrently over it.
	var (
		analytics   models.Analytics
		report      *models.AnalysisReport
		analysisErr error
		wg          sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.setStage(runID, models.StageAggregating)
		analytics = Aggregate(corpus)
	}()
	go func() {
		defer wg.Done()
		o.setStage(runID, models.StageAnalyzing)
		report, analysisErr = o.analyzer.Analyze(ctx, prompt, query.Model)
	}()
	wg.Wait()

	result := &models.ResearchResult{
		Query:       query,
		Corpus:      corpus,
		Analytics:   analytics,
		Partial:     fetched.Partial,
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
	}
	if fetched.Partial && fetched.Cause != nil {
		result.PartialReason = fetched.Cause.Message
	}
	if analysisErr != nil {
		kind := string(provider.KindUnavailable)
		if perr, ok := provider.AsError(analysisErr); ok {
			kind = string(perr.Kind)
		}
		result.AnalysisFailure = &models.AnalysisFailure{
			Kind:    kind,
			Message: "analysis unavailable, showing articles only",
		}
		o.logger.Printf("run %s degraded, analysis dropped: %v", runID, analysisErr)
	} else {
		result.Analysis = report
	}

	// Degraded results stay uncached so the next request can try the
	// model again.
	if result.Analysis != nil {
		if err := o.cache.Set(ctx, key, result, o.cfg.Cache.TTL); err != nil {
			o.logger.Printf("cache write failed: %v", err)
		} else {
			o.tel.RecordCache("store")
		}
	}
	if o.history != nil {
		o.history.Record(result)
	}

	o.finishRun(runID, models.StageDone, "")
	o.tel.RecordRun("done", result.Partial, time.Since(started))
	return result, nil
}

// fetchWithRetry calls the news provider, retrying once for retryable
// failures after the provider's advertised backoff or the configured
// default. Partial results come back with a nil error and are not
// retried.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, query models.Query) (news.Result, *news.FetchError) {
	result, err := o.source.Fetch(ctx, query)
	if err == nil {
		return result, nil
	}
	ferr := asFetchError(err)
	if !ferr.Retryable() {
		return news.Result{}, ferr
	}

	backoff := ferr.Backoff(o.cfg.Research.RetryBackoff)
	o.logger.Printf("fetch failed (%s), retrying once in %s", ferr.Kind, backoff)
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return news.Result{}, ferr
	}

	result, err = o.source.Fetch(ctx, query)
	if err == nil {
		return result, nil
	}
	return news.Result{}, asFetchError(err)
}

func asFetchError(err error) *news.FetchError {
	if ferr, ok := news.AsFetchError(err); ok {
		return ferr
	}
	return news.NewFetchError(news.KindNetwork, err)
}

// prepare validates the query and fills defaults: article limit, sort
// mode, model, and a date range covering the configured trailing window
// when none was given. Date bounds are widened to whole UTC days so
// equivalent ranges share a cache identity.
func (o *Orchestrator) prepare(query models.Query) (models.Query, error) {
	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" {
		return query, invalidQuery("query text must not be empty")
	}

	if query.MaxArticles == 0 {
		query.MaxArticles = o.cfg.Research.DefaultMaxArticles
	}
	if query.MaxArticles < models.MinArticleLimit || query.MaxArticles > models.MaxArticleLimit {
		return query, invalidQuery(fmt.Sprintf("max_articles must be between %d and %d", models.MinArticleLimit, models.MaxArticleLimit))
	}

	if query.SortMode == "" {
		query.SortMode = models.SortMode(o.cfg.Research.DefaultSort)
	}
	if !query.SortMode.Valid() {
		return query, invalidQuery(fmt.Sprintf("unknown sort mode %q", query.SortMode))
	}

	if query.Model == "" {
		query.Model = o.cfg.LLM.Model
	}
	if !o.cfg.LLM.Known(query.Model) {
		return query, invalidQuery(fmt.Sprintf("unknown model %q", query.Model))
	}

	if query.DateFrom.IsZero() && query.DateTo.IsZero() {
		now := time.Now().UTC()
		query.DateTo = now
		query.DateFrom = now.AddDate(0, 0, -o.cfg.Research.DefaultDaysBack)
	}
	if !query.DateFrom.IsZero() {
		query.DateFrom = startOfDay(query.DateFrom)
	}
	if !query.DateTo.IsZero() {
		query.DateTo = endOfDay(query.DateTo)
	}
	if !query.DateFrom.IsZero() && !query.DateTo.IsZero() && query.DateFrom.After(query.DateTo) {
		return query, invalidDateRange()
	}
	return query, nil
}

func startOfDay(ts time.Time) time.Time {
	t := ts.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(ts time.Time) time.Time {
	t := ts.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

func (o *Orchestrator) track(runID string, query models.Query) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, st := range o.runs {
		finished := st.Stage == models.StageDone || st.Stage == models.StageFailed
		if finished && now.Sub(st.UpdatedAt) > runRetention {
			delete(o.runs, id)
		}
	}
	o.runs[runID] = &models.RunStatus{
		RunID:     runID,
		Query:     query.Text,
		Stage:     models.StageFetching,
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (o *Orchestrator) setStage(runID string, stage models.RunStage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.runs[runID]; ok {
		st.Stage = stage
		st.UpdatedAt = time.Now().UTC()
	}
}

func (o *Orchestrator) finishRun(runID string, stage models.RunStage, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.runs[runID]; ok {
		st.Stage = stage
		st.Error = errMsg
		st.UpdatedAt = time.Now().UTC()
	}
}

// Runs snapshots the status registry, oldest first. Finished runs stay
// listed for a short retention window.
func (o *Orchestrator) Runs() []models.RunStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.RunStatus, 0, len(o.runs))
	for _, st := range o.runs {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Status reports the stage of a single run.
func (o *Orchestrator) Status(runID string) (models.RunStatus, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if st, ok := o.runs[runID]; ok {
		return *st, true
	}
	return models.RunStatus{}, false
}

// Telemetry exposes the metrics registry backing this orchestrator.
func (o *Orchestrator) Telemetry() *telemetry.Telemetry { return o.tel }

// History exposes the run history index, nil when none was wired.
func (o *Orchestrator) History() *search.History { return o.history }

// Models lists the model catalog, default first.
func (o *Orchestrator) Models() []string {
	catalog := make([]string, 0, len(o.cfg.LLM.Models)+1)
	seen := map[string]bool{}
	for _, m := range append([]string{o.cfg.LLM.Model}, o.cfg.LLM.Models...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		catalog = append(catalog, m)
	}
	return catalog
}

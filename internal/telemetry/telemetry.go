package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry records pipeline metrics on a private registry and keeps a
// JSON-friendly snapshot for the stats endpoint.
type Telemetry struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	fetches     *prometheus.CounterVec
	fetchedSize prometheus.Histogram
	modelCalls  *prometheus.CounterVec
	cacheEvents *prometheus.CounterVec

	mu    sync.RWMutex
	stats Stats
}

// Stats is the snapshot served as JSON by the API.
type Stats struct {
	Runs          int64     `json:"runs"`
	Failures      int64     `json:"failures"`
	PartialRuns   int64     `json:"partial_runs"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	ModelCalls    int64     `json:"model_calls"`
	ModelFailures int64     `json:"model_failures"`
	ArticlesSeen  int64     `json:"articles_seen"`
	LastRunAt     time.Time `json:"last_run_at"`
}

// New creates a Telemetry with all collectors registered.
func New() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsresearch_runs_total",
			Help: "Completed research runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsresearch_run_duration_seconds",
			Help:    "Wall time of research runs.",
			Buckets: prometheus.DefBuckets,
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsresearch_fetches_total",
			Help: "News provider fetches by result.",
		}, []string{"result"}),
		fetchedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsresearch_fetched_articles",
			Help:    "Raw articles returned per fetch.",
			Buckets: []float64{0, 5, 10, 15, 25, 50, 100},
		}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsresearch_model_calls_total",
			Help: "Model invocations by model and result.",
		}, []string{"model", "result"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsresearch_cache_events_total",
			Help: "Result cache events.",
		}, []string{"event"}),
	}
	t.registry.MustRegister(t.runs, t.runDuration, t.fetches, t.fetchedSize, t.modelCalls, t.cacheEvents)
	return t
}

// Handler serves the private registry in Prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// RecordRun counts one finished run. outcome is done or failed.
func (t *Telemetry) RecordRun(outcome string, partial bool, duration time.Duration) {
	t.runs.WithLabelValues(outcome).Inc()
	t.runDuration.Observe(duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Runs++
	if outcome == "failed" {
		t.stats.Failures++
	}
	if partial {
		t.stats.PartialRuns++
	}
	t.stats.LastRunAt = time.Now().UTC()
}

// RecordFetch counts one provider fetch. result is ok, partial or error.
func (t *Telemetry) RecordFetch(result string, articles int) {
	t.fetches.WithLabelValues(result).Inc()
	t.fetchedSize.Observe(float64(articles))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ArticlesSeen += int64(articles)
}

// RecordModelCall counts one inference attempt. result is ok or error.
func (t *Telemetry) RecordModelCall(model, result string) {
	t.modelCalls.WithLabelValues(model, result).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ModelCalls++
	if result != "ok" {
		t.stats.ModelFailures++
	}
}

// RecordCache counts a cache event: hit, miss or store.
func (t *Telemetry) RecordCache(event string) {
	t.cacheEvents.WithLabelValues(event).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	switch event {
	case "hit":
		t.stats.CacheHits++
	case "miss":
		t.stats.CacheMisses++
	}
}

// Snapshot returns a copy of the current stats.
func (t *Telemetry) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

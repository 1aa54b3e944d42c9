package search

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

const DefaultSize = 10

// Entry is the compact view of a completed run kept in history.
type Entry struct {
	RunID          string    `json:"run_id"`
	Query          string    `json:"query"`
	SortMode       string    `json:"sort_mode"`
	Model          string    `json:"model,omitempty"`
	Articles       int       `json:"articles"`
	Sources        int       `json:"sources"`
	Recommendation string    `json:"recommendation,omitempty"`
	Partial        bool      `json:"partial,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// historyDoc is the searchable projection of an entry.
type historyDoc struct {
	Query          string `json:"query"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

// History keeps the most recent completed runs with a full-text index
// over their queries and executive summaries. Newest entries come
// first. When the ring is full the oldest run leaves both the list and
// the index.
type History struct {
	size   int
	index  bleve.Index
	logger *log.Logger

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]Entry
	results map[string]*models.ResearchResult
}

func NewHistory(size int) (*History, error) {
	if size <= 0 {
		size = DefaultSize
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("history index: %w", err)
	}
	return &History{
		size:    size,
		index:   index,
		logger:  log.New(log.Writer(), "[HISTORY] ", log.LstdFlags),
		byID:    make(map[string]Entry),
		results: make(map[string]*models.ResearchResult),
	}, nil
}

// Record adds a completed run to the history.
func (h *History) Record(result *models.ResearchResult) {
	entry := Entry{
		RunID:       result.RunID,
		Query:       result.Query.Text,
		SortMode:    string(result.Query.SortMode),
		Model:       result.Query.Model,
		Articles:    result.Analytics.TotalArticles,
		Sources:     result.Analytics.DistinctSources,
		Partial:     result.Partial,
		GeneratedAt: result.GeneratedAt,
	}
	doc := historyDoc{Query: entry.Query}
	if result.Analysis != nil {
		entry.Recommendation = string(result.Analysis.Recommendation)
		doc.Summary = result.Analysis.ExecutiveSummary
		doc.Recommendation = entry.Recommendation
	}

	stored := *result

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]Entry{entry}, h.entries...)
	h.byID[entry.RunID] = entry
	h.results[entry.RunID] = &stored
	for len(h.entries) > h.size {
		oldest := h.entries[len(h.entries)-1]
		h.entries = h.entries[:len(h.entries)-1]
		delete(h.byID, oldest.RunID)
		delete(h.results, oldest.RunID)
		if err := h.index.Delete(oldest.RunID); err != nil {
			h.logger.Printf("dropping %s from index failed: %v", oldest.RunID, err)
		}
	}
	if err := h.index.Index(entry.RunID, doc); err != nil {
		h.logger.Printf("indexing %s failed: %v", entry.RunID, err)
	}
}

// Result returns the full recorded result for a run still in the ring.
func (h *History) Result(runID string) (*models.ResearchResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res, ok := h.results[runID]
	return res, ok
}

// List returns the recorded entries, newest first.
func (h *History) List() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Search matches term against recorded queries, summaries and
// recommendations, best match first.
func (h *History) Search(term string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = h.size
	}
	query := bleve.NewQueryStringQuery(term)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	res, err := h.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if entry, ok := h.byID[hit.ID]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL cache for finished research results. Stored values are
// shared between readers and must be treated as read-only.
type Store interface {
	Get(ctx context.Context, key string) (*models.ResearchResult, error)
	Set(ctx context.Context, key string, result *models.ResearchResult, ttl time.Duration) error
}

// Key derives the cache key for a query. Queries meaning the same
// research share a key: text matching is case- and whitespace-insensitive
// and the source filter order-insensitive. MaxArticles and Model stay
// outside the key on purpose.
func Key(query models.Query) string {
	filter := make([]string, 0, len(query.SourceFilter))
	for _, src := range query.SourceFilter {
		src = strings.ToLower(strings.TrimSpace(src))
		if src != "" {
			filter = append(filter, src)
		}
	}
	sort.Strings(filter)

	return helpers.Fingerprint(
		helpers.NormalizeText(query.Text),
		query.DateFrom.UTC().Format(time.RFC3339),
		query.DateTo.UTC().Format(time.RFC3339),
		string(query.SortMode),
		strings.Join(filter, ","),
	)
}

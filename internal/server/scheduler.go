package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/internal/research"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

// watchlistRunner is the slice of the orchestrator the scheduler needs.
type watchlistRunner interface {
	Run(ctx context.Context, query models.Query) (*models.ResearchResult, error)
}

// Scheduler re-runs watchlist queries on their cron schedule so the
// result cache stays warm. With a Redis client present, a SetNX lock
// keeps replicas from firing the same entry twice.
type Scheduler struct {
	Orch    watchlistRunner
	Entries []config.WatchEntry
	Rdb     *redis.Client
	LockTTL time.Duration
	Stop    chan struct{}

	logger *log.Logger

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewScheduler(orch *research.Orchestrator, cfg config.WatchlistConfig, rdb *redis.Client) *Scheduler {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Scheduler{
		Orch:    orch,
		Entries: cfg.Entries,
		Rdb:     rdb,
		LockTTL: lockTTL,
		Stop:    make(chan struct{}),
		logger:  log.New(log.Writer(), "[WATCHLIST] ", log.LstdFlags),
		lastRun: make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) Shutdown() { close(s.Stop) }

func (s *Scheduler) tick() {
	ctx := context.Background()
	for _, entry := range s.Entries {
		key := helpers.Fingerprint(entry.Query)

		s.mu.Lock()
		last, seen := s.lastRun[key]
		s.mu.Unlock()
		var lastPtr *time.Time
		if seen {
			lastPtr = &last
		}
		if !isDue(entry.Cron, lastPtr) {
			continue
		}

		// distributed lock to avoid duplicate runs
		if s.Rdb != nil {
			ok, err := s.Rdb.SetNX(ctx, "watchlist:lock:"+key, "1", s.LockTTL).Result()
			if err != nil || !ok {
				continue
			}
		}

		s.mu.Lock()
		s.lastRun[key] = time.Now()
		s.mu.Unlock()

		go func(entry config.WatchEntry) {
			query := models.Query{Text: entry.Query, MaxArticles: entry.MaxArticles}
			if _, err := s.Orch.Run(ctx, query); err != nil {
				s.logger.Printf("watchlist %q failed: %v", entry.Query, err)
			}
		}(entry)
	}
}

// isDue determines if an entry with cronSpec should run now based on
// its last run time. Supports "@daily", "@hourly", and standard
// 5-field cron expressions. A never-run entry is due immediately.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}

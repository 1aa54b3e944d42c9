package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/cache"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

type entry struct {
	result    *models.ResearchResult
	expiresAt time.Time
}

// Store is a per-process TTL cache. Expired entries are dropped lazily
// on the read path.
type Store struct {
	entries map[string]entry
	mu      sync.RWMutex
}

func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Get(ctx context.Context, key string) (*models.ResearchResult, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, cache.ErrMiss
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, cache.ErrMiss
	}
	return e.result, nil
}

func (s *Store) Set(ctx context.Context, key string, result *models.ResearchResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{result: result, expiresAt: time.Now().Add(ttl)}
	return nil
}

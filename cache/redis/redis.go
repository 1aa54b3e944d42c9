package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agcreativegroup/News-Research-Tool/cache"
	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

const keyPrefix = "research:result:"

// Store keeps results in Redis so replicas behind one endpoint share a
// cache. Values are JSON with a server-side TTL.
type Store struct {
	client *goredis.Client
}

// New wraps an existing client.
func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

// NewFromConfig dials Redis and verifies the connection.
func NewFromConfig(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*models.ResearchResult, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == goredis.Nil {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var result models.ResearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}
	return &result, nil
}

func (s *Store) Set(ctx context.Context, key string, result *models.ResearchResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

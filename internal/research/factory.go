package research

import (
	"context"
	"fmt"

	"github.com/agcreativegroup/News-Research-Tool/cache/inmemory"
	rediscache "github.com/agcreativegroup/News-Research-Tool/cache/redis"
	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/enrich"
	"github.com/agcreativegroup/News-Research-Tool/internal/search"
	"github.com/agcreativegroup/News-Research-Tool/internal/telemetry"
	"github.com/agcreativegroup/News-Research-Tool/news/newsapi"
	"github.com/agcreativegroup/News-Research-Tool/provider/groq"
)

// NewFromConfig assembles the pipeline from configuration: the NewsAPI
// source, the configured model provider, the cache backend, the run
// history index and the optional enrichment fetcher.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	deps := Deps{
		Source:    newsapi.New(cfg.Sources.NewsAPI),
		Telemetry: telemetry.New(),
	}

	switch cfg.LLM.Provider {
	case "", "groq":
		deps.Model = groq.New(cfg.LLM)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}

	switch cfg.Cache.Backend {
	case "", "memory":
		deps.Cache = inmemory.New()
	case "redis":
		store, err := rediscache.NewFromConfig(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		deps.Cache = store
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}

	if cfg.Enrichment.Enabled {
		deps.Enricher = enrich.New(cfg.Enrichment)
	}

	history, err := search.NewHistory(cfg.Research.HistorySize)
	if err != nil {
		return nil, err
	}
	deps.History = history

	return New(cfg, deps), nil
}

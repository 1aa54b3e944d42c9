package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

// Config holds all configuration for the research pipeline
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Research   ResearchConfig   `mapstructure:"research"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Watchlist  WatchlistConfig  `mapstructure:"watchlist"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	JWTSecret    string   `mapstructure:"jwt_secret"`
	AuthEnabled  bool     `mapstructure:"auth_enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	if s.AuthEnabled && len(s.JWTSecret) < 16 {
		return fmt.Errorf("server.jwt_secret must be at least 16 bytes when auth is enabled")
	}
	return nil
}

// SourcesConfig contains news source configurations
type SourcesConfig struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	Language          string        `mapstructure:"language"`
	PageSize          int           `mapstructure:"page_size"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

func (n NewsAPIConfig) Validate() error {
	key := strings.TrimSpace(n.APIKey)
	if key != "" && len(key) < 10 {
		return fmt.Errorf("sources.newsapi.api_key looks invalid (too short)")
	}
	if n.PageSize < 1 || n.PageSize > 100 {
		return fmt.Errorf("sources.newsapi.page_size must be within [1,100]")
	}
	if n.RequestsPerMinute <= 0 {
		return fmt.Errorf("sources.newsapi.requests_per_minute must be > 0")
	}
	return nil
}

// LLMConfig contains the inference provider configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Models      []string      `mapstructure:"models"`
	Fallback    []string      `mapstructure:"fallback"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	key := strings.TrimSpace(l.APIKey)
	if key != "" && len(key) < 10 {
		return fmt.Errorf("llm.api_key looks invalid (too short)")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	if !l.Known(l.Model) {
		return fmt.Errorf("llm.model %q is not in llm.models", l.Model)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	return nil
}

// Known reports whether model is part of the configured catalog.
func (l LLMConfig) Known(model string) bool {
	for _, m := range l.Models {
		if m == model {
			return true
		}
	}
	return false
}

// ResearchConfig contains pipeline defaults and retry settings
type ResearchConfig struct {
	DefaultDaysBack    int           `mapstructure:"default_days_back"`
	DefaultMaxArticles int           `mapstructure:"default_max_articles"`
	DefaultSort        string        `mapstructure:"default_sort"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	HistorySize        int           `mapstructure:"history_size"`
}

// Normalize applies defaults for unset research values.
func (r ResearchConfig) Normalize() ResearchConfig {
	if r.DefaultDaysBack <= 0 {
		r.DefaultDaysBack = 7
	}
	if r.DefaultMaxArticles < models.MinArticleLimit {
		r.DefaultMaxArticles = 15
	}
	if r.DefaultMaxArticles > models.MaxArticleLimit {
		r.DefaultMaxArticles = models.MaxArticleLimit
	}
	if !models.SortMode(r.DefaultSort).Valid() {
		r.DefaultSort = string(models.SortRelevance)
	}
	if r.RetryBackoff <= 0 {
		r.RetryBackoff = 5 * time.Second
	}
	if r.HistorySize <= 0 {
		r.HistorySize = 10
	}
	return r
}

// PromptConfig bounds the prompt the analyzer sends to the model
type PromptConfig struct {
	ArticleCharBudget int `mapstructure:"article_char_budget"`
	CharCeiling       int `mapstructure:"char_ceiling"`
}

// Normalize applies defaults for unset prompt values.
func (p PromptConfig) Normalize() PromptConfig {
	if p.ArticleCharBudget <= 0 {
		p.ArticleCharBudget = 280
	}
	if p.CharCeiling <= 0 {
		p.CharCeiling = 12000
	}
	return p
}

// CacheConfig selects and tunes the result cache
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "redis":
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("cache.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("cache.redis.port required")
	}
	return nil
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// EnrichmentConfig controls optional full-text upgrades of top articles
type EnrichmentConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Fetcher  string        `mapstructure:"fetcher"`
	TopN     int           `mapstructure:"top_n"`
	MaxChars int           `mapstructure:"max_chars"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (e EnrichmentConfig) Validate() error {
	if !e.Enabled {
		return nil
	}
	if e.Fetcher != "http" && e.Fetcher != "chromedp" {
		return fmt.Errorf("enrichment.fetcher must be http or chromedp, got %q", e.Fetcher)
	}
	if e.TopN <= 0 {
		return fmt.Errorf("enrichment.top_n must be > 0 when enrichment is enabled")
	}
	return nil
}

// StorageConfig contains persistence settings for the auth store
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns the connection string, preferring an explicit url.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=" + sslmode,
	}
	return dsn.String()
}

// WatchlistConfig schedules recurring cache-warming researches
type WatchlistConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	Entries []WatchEntry  `mapstructure:"entries"`
}

// WatchEntry is one recurring query
type WatchEntry struct {
	Query       string `mapstructure:"query"`
	Cron        string `mapstructure:"cron"`
	MaxArticles int    `mapstructure:"max_articles"`
}

func (w WatchlistConfig) Validate() error {
	if !w.Enabled {
		return nil
	}
	if len(w.Entries) == 0 {
		return fmt.Errorf("watchlist.entries required when watchlist is enabled")
	}
	for idx, entry := range w.Entries {
		if strings.TrimSpace(entry.Query) == "" {
			return fmt.Errorf("watchlist.entries[%d].query required", idx)
		}
		if strings.TrimSpace(entry.Cron) == "" {
			return fmt.Errorf("watchlist.entries[%d].cron required", idx)
		}
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 90*time.Second)

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.auth_enabled", false)
	viper.SetDefault("server.allow_origins", []string{"*"})

	viper.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	viper.SetDefault("sources.newsapi.language", "en")
	viper.SetDefault("sources.newsapi.page_size", 15)
	viper.SetDefault("sources.newsapi.requests_per_minute", 30.0)
	viper.SetDefault("sources.newsapi.burst", 5)
	viper.SetDefault("sources.newsapi.timeout", 20*time.Second)

	viper.SetDefault("llm.provider", "groq")
	viper.SetDefault("llm.endpoint", "https://api.groq.com/openai/v1/chat/completions")
	viper.SetDefault("llm.model", "openai/gpt-oss-120b")
	viper.SetDefault("llm.models", []string{
		"openai/gpt-oss-120b",
		"llama-3.1-8b-instant",
		"moonshotai/kimi-k2-instruct-0905",
		"gemma-7b-it",
	})
	viper.SetDefault("llm.fallback", []string{
		"openai/gpt-oss-120b",
		"llama-3.1-8b-instant",
		"moonshotai/kimi-k2-instruct-0905",
		"gemma-7b-it",
	})
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout", 60*time.Second)

	viper.SetDefault("research.default_days_back", 7)
	viper.SetDefault("research.default_max_articles", 15)
	viper.SetDefault("research.default_sort", string(models.SortRelevance))
	viper.SetDefault("research.retry_backoff", 5*time.Second)
	viper.SetDefault("research.history_size", 10)

	viper.SetDefault("prompt.article_char_budget", 280)
	viper.SetDefault("prompt.char_ceiling", 12000)

	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", 15*time.Minute)
	viper.SetDefault("cache.redis.db", 0)

	viper.SetDefault("enrichment.enabled", false)
	viper.SetDefault("enrichment.fetcher", "http")
	viper.SetDefault("enrichment.top_n", 3)
	viper.SetDefault("enrichment.max_chars", 6000)
	viper.SetDefault("enrichment.timeout", 25*time.Second)

	viper.SetDefault("watchlist.enabled", false)
	viper.SetDefault("watchlist.lock_ttl", 2*time.Minute)

	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		viper.AddConfigPath("./config") // path to look for the config file in
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                                // bin/
		viper.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("NEWSRESEARCH")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (NEWSRESEARCH_*)

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus env are a complete configuration; only an
		// explicitly named file is required to exist.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	// unmarshal config
	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Research = config.Research.Normalize()
	config.Prompt = config.Prompt.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Sources.NewsAPI.Validate(); err != nil {
		panic(err)
	}
	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Cache.Validate(); err != nil {
		panic(err)
	}
	if err := config.Enrichment.Validate(); err != nil {
		panic(err)
	}
	if err := config.Watchlist.Validate(); err != nil {
		panic(err)
	}
	if config.Server.AuthEnabled {
		if err := config.Storage.Postgres.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}

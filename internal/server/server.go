package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/research"
	"github.com/agcreativegroup/News-Research-Tool/internal/store"
)

// Run wires the research pipeline into an HTTP API and blocks serving it.
func Run(ctx context.Context, cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	orch, err := research.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(orch.Telemetry().Handler()))

	api := e.Group("/api")
	grp := api

	if cfg.Server.AuthEnabled {
		st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("auth store: %w", err)
		}
		auth := &AuthHandler{Store: st, Secret: []byte(cfg.Server.JWTSecret)}
		auth.Register(api.Group("/auth"))

		grp = api.Group("", EchoAuthMiddleware(auth.Secret))
		grp.GET("/me", func(c echo.Context) error {
			return c.JSON(200, MeResponse{UserID: c.Get("user_id").(string)})
		})
	}

	rh := &ResearchHandler{Orch: orch}
	rh.Register(grp)

	if cfg.Watchlist.Enabled {
		var rdb *redis.Client
		if cfg.Cache.Backend == "redis" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.Redis.Addr(),
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
		}
		sched := NewScheduler(orch, cfg.Watchlist, rdb)
		sched.Start()
		defer sched.Shutdown()
	}

	addr := cfg.Server.Address
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// cmd/main is the entry point of the main service.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/config"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/database"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/handler"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/httpx"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/logging"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/statsclient"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/views"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Error("main service stopped")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadMain()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	// ── 2. Statistics client and view counts ──────────────────────────────
	stats := statsclient.New(cfg.StatsURL, cfg.StatsTimeout)
	var cache views.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, view counts will not be cached")
		} else {
			cache = views.NewRedisCache(rdb, cfg.ViewsCacheTTL)
			logger.WithField("ttl", cfg.ViewsCacheTTL).Info("view count cache enabled")
		}
	}
	aggregator := views.NewAggregator(stats, cache, cfg.AppName, cfg.StatsTimeout, logger)

	// ── 3. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	eventSvc := service.NewEventService(eventRepo, categoryRepo, userRepo, commentRepo, aggregator, logger)
	requestSvc := service.NewRequestService(requestRepo, eventRepo, userRepo, logger)
	h := handler.New(eventSvc, requestSvc, stats, cfg.AppName, logger)

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpx.Logger(logger))
	r.Use(httpx.CORS)
	r.Mount("/", h.Routes())

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return httpx.Serve(ctx, srv, cfg.ShutdownTimeout, logger)
}

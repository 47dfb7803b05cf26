// Command api is the courtstats HTTP service.
//
// Usage:
//
//	courtstats-api
//	API_PORT=8080 DB_KIND=sqlite DATABASE_URL=file:stats.db courtstats-api

// @title courtstats API
// @version 1.0.0
// @description Ingests delimited stat files into relational tables and reconciles scraped season statistics into player history.
// @host localhost:3000
// @BasePath /
// @schemes http https
// @contact.name courtstats
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/courtstats/internal/api"
	"github.com/albapepper/courtstats/internal/api/handler"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/config"
	"github.com/albapepper/courtstats/internal/provider/bdl"
	"github.com/albapepper/courtstats/internal/provider/nbastats"
	"github.com/albapepper/courtstats/internal/provider/scrape"
	"github.com/albapepper/courtstats/internal/reconcile"
	"github.com/albapepper/courtstats/internal/scheduler"
	"github.com/albapepper/courtstats/internal/storage"
	_ "github.com/albapepper/courtstats/internal/storage/postgres"
	_ "github.com/albapepper/courtstats/internal/storage/sqlite"

	_ "github.com/albapepper/courtstats/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Connecting to database...", "kind", cfg.DBKind)
	store, err := storage.Open(ctx, cfg.StorageConfig(cfg.DatabaseURL))
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	deps := handler.Deps{
		Store:   store,
		Leaders: nbastats.NewClient("", logger),
		Logger:  logger,
	}

	if cfg.DemoDatabaseURL != "" {
		demo, err := storage.Open(ctx, cfg.StorageConfig(cfg.DemoDatabaseURL))
		if err != nil {
			logger.Error("Failed to connect to demo database", "error", err)
			os.Exit(1)
		}
		defer demo.Close()
		deps.Demo = demo
		logger.Info("Demo database connected")
	}

	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	deps.Cache = appCache
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	if cfg.BDLAPIKey != "" {
		deps.Teams = bdl.NewClient("", cfg.BDLAPIKey, bdl.DefaultRequestsPerMinute, logger)
	} else {
		logger.Info("Teams endpoint disabled (no BALLDONTLIE_API_KEY)")
	}

	if cfg.FGSourceURL != "" {
		deps.Fetcher = scrape.New(scrape.Config{URL: cfg.FGSourceURL, MaxPages: cfg.ScrapeMaxPages}, logger)
	} else {
		logger.Info("Reconcile endpoint disabled (no FG_SOURCE_URL)")
	}

	// Periodic reconcile against the primary store
	if deps.Fetcher != nil && cfg.ReconcileInterval > 0 {
		job := &reconcile.Job{
			Fetcher:     deps.Fetcher,
			Coordinator: reconcile.NewCoordinator(store, nil, logger),
			Options: reconcile.Options{
				Table:        cfg.HistoryTable,
				MetricColumn: config.FGMetricColumn,
				League:       cfg.League,
				Season:       cfg.CurrentSeason,
			},
			Timeout: cfg.ScrapeTimeout,
			Logger:  logger,
		}
		go scheduler.Start(ctx, []scheduler.Task{
			scheduler.ReconcileTask(job, cfg.ReconcileInterval, appCache),
		}, logger)
	}

	router := api.NewRouter(deps, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 60 * time.Second, // uploads
		// Reconcile requests wait on the scrape plus the batch.
		WriteTimeout: cfg.ScrapeTimeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting courtstats API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// Command api is the RunPA API server.
//
// Usage:
//
//	runpa-api
//	PORT=8080 runpa-api

// @title RunPA API
// @version 1.0.0
// @description Strava activity ingestion, athlete roll-ups, farthest activities and leaderboards.
// @host localhost:5000
// @BasePath /
// @schemes http https
// @contact.name RunPA
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daldosso/RunPA-backend-2025/internal/analytics"
	"github.com/daldosso/RunPA-backend-2025/internal/api"
	"github.com/daldosso/RunPA-backend-2025/internal/api/handler"
	"github.com/daldosso/RunPA-backend-2025/internal/cache"
	"github.com/daldosso/RunPA-backend-2025/internal/config"
	"github.com/daldosso/RunPA-backend-2025/internal/db"
	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/geocode"
	"github.com/daldosso/RunPA-backend-2025/internal/ingest"
	"github.com/daldosso/RunPA-backend-2025/internal/store"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"

	_ "github.com/daldosso/RunPA-backend-2025/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.DBAutoMigrate {
		logger.Info("Applying schema...")
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Core components
	st := store.New(pool.Pool)
	geocoder := newGeocoder(cfg, logger)
	ingestor := ingest.New(st, geocoder, ingest.Options{
		Workers:         cfg.IngestWorkers,
		ContinueOnError: cfg.IngestContinueOnError,
	}, logger)
	reference := geo.Coord{Lat: cfg.ReferenceLat, Lon: cfg.ReferenceLon}
	engine := analytics.New(st, analytics.Options{
		Reference:   &reference,
		Concurrency: cfg.AnalyticsConcurrency,
	}, logger)
	logger.Info("Analytics engine ready",
		"reference", engine.Reference().Slice(),
		"concurrency", cfg.AnalyticsConcurrency)

	oauth := strava.NewOAuth(cfg.StravaOAuthBaseURL, cfg.StravaClientID, cfg.StravaClientSecret)
	if !oauth.Configured() {
		logger.Warn("Strava OAuth disabled (STRAVA_CLIENT_ID / STRAVA_CLIENT_SECRET not set)")
	}

	// Create router
	router := api.NewRouter(handler.Deps{
		DB:        pool,
		Cache:     appCache,
		OAuth:     oauth,
		Strava:    strava.NewClient(cfg.StravaAPIBaseURL, cfg.StravaRequestsPerMinute, cfg.StravaMaxPages, logger),
		Ingestor:  ingestor,
		Analytics: engine,
		Config:    cfg,
		Logger:    logger,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // activity sync paginates Strava and geocodes
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting RunPA API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// newGeocoder returns the Nominatim resolver, or a no-op when disabled.
func newGeocoder(cfg *config.Config, logger *slog.Logger) geocode.Resolver {
	if !cfg.GeocoderEnabled {
		logger.Info("Reverse geocoding disabled")
		return geocode.NopResolver{}
	}
	return geocode.NewNominatimResolver(geocode.Options{
		BaseURL:           cfg.GeocoderURL,
		UserAgent:         cfg.GeocoderUserAgent,
		RequestsPerSecond: cfg.GeocoderRPS,
		Timeout:           cfg.GeocoderTimeout,
	}, logger)
}

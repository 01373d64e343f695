// Package handler provides HTTP handlers for all API endpoints.
// Collaborators are injected as small interfaces so handlers can be tested
// against fakes; analytics views are cached as encoded JSON with ETags.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/daldosso/RunPA-backend-2025/internal/analytics"
	"github.com/daldosso/RunPA-backend-2025/internal/api/respond"
	"github.com/daldosso/RunPA-backend-2025/internal/cache"
	"github.com/daldosso/RunPA-backend-2025/internal/config"
	"github.com/daldosso/RunPA-backend-2025/internal/ingest"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"
)

// Pinger checks database connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// TokenRelay exchanges OAuth codes and refresh tokens.
type TokenRelay interface {
	Configured() bool
	Exchange(ctx context.Context, code string) (*strava.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*strava.TokenResponse, error)
}

// ActivitySource fetches an athlete's data with their bearer token.
type ActivitySource interface {
	GetAthlete(ctx context.Context, token string) (strava.Athlete, error)
	ListAllActivities(ctx context.Context, token string) ([]strava.RawActivity, error)
}

// Ingester writes a fetched batch to the store.
type Ingester interface {
	Ingest(ctx context.Context, profile model.Athlete, raw []strava.RawActivity) (ingest.Result, error)
}

// Analytics computes the read-side views.
type Analytics interface {
	Rollups(ctx context.Context) ([]analytics.AthleteRollup, error)
	Farthest(ctx context.Context) ([]analytics.FarthestActivity, error)
	Leaderboards(ctx context.Context) (analytics.Leaderboards, error)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	DB        Pinger
	Cache     *cache.Cache
	OAuth     TokenRelay
	Strava    ActivitySource
	Ingestor  Ingester
	Analytics Analytics
	Config    *config.Config
	Logger    *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	db        Pinger
	cache     *cache.Cache
	cfg       *config.Config
	oauth     TokenRelay
	strava    ActivitySource
	ingestor  Ingester
	analytics Analytics
	logger    *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Cache == nil {
		d.Cache = cache.New(false)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		db:        d.DB,
		cache:     d.Cache,
		cfg:       d.Config,
		oauth:     d.OAuth,
		strava:    d.Strava,
		ingestor:  d.Ingestor,
		analytics: d.Analytics,
		logger:    d.Logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"name":    "RunPA API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"metrics": "/metrics",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.db.HealthCheck(r.Context()) != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeInternal logs err and sends a generic 5xx. The error text is only
// echoed outside production.
func (h *Handler) writeInternal(w http.ResponseWriter, status int, code, message string, err error) {
	h.logger.Error(message, "error", err)
	detail := ""
	if h.cfg != nil && !h.cfg.IsProduction() {
		detail = err.Error()
	}
	respond.ErrorDetail(w, status, code, message, detail)
}

// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
)

// --------------------------------------------------------------------------
// Table names, shared with schema.sql
// --------------------------------------------------------------------------

const (
	AthletesTable   = "athletes"
	ActivitiesTable = "activities"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	DBAutoMigrate  bool

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Strava
	StravaClientID          string
	StravaClientSecret      string
	StravaAPIBaseURL        string
	StravaOAuthBaseURL      string
	StravaRequestsPerMinute int
	StravaMaxPages          int
	StravaRedirectURI       string // mobile deep link the OAuth callback bounces to

	// Reverse geocoding
	GeocoderEnabled   bool
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderRPS       float64
	GeocoderTimeout   time.Duration

	// Ingestion
	IngestWorkers         int
	IngestContinueOnError bool

	// Analytics
	ReferenceLat         float64
	ReferenceLon         float64
	AnalyticsConcurrency int

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		DBAutoMigrate:  envBool("DB_AUTO_MIGRATE", false),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 5000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		StravaClientID:          envOr("STRAVA_CLIENT_ID", ""),
		StravaClientSecret:      envOr("STRAVA_CLIENT_SECRET", ""),
		StravaAPIBaseURL:        envOr("STRAVA_API_BASE_URL", "https://www.strava.com/api/v3"),
		StravaOAuthBaseURL:      envOr("STRAVA_OAUTH_BASE_URL", "https://www.strava.com"),
		StravaRequestsPerMinute: envInt("STRAVA_REQUESTS_PER_MINUTE", 100),
		StravaMaxPages:          envInt("STRAVA_MAX_PAGES", 5),
		StravaRedirectURI:       envOr("STRAVA_REDIRECT_URI", "com.adaldosso.runpa://oauthredirect"),

		GeocoderEnabled:   envBool("GEOCODER_ENABLED", true),
		GeocoderURL:       envOr("GEOCODER_URL", "https://nominatim.openstreetmap.org/reverse"),
		GeocoderUserAgent: envOr("GEOCODER_USER_AGENT", "runpa-backend/1.0"),
		GeocoderRPS:       envFloat("GEOCODER_RPS", 1),
		GeocoderTimeout:   time.Duration(envInt("GEOCODER_TIMEOUT_SECONDS", 10)) * time.Second,

		IngestWorkers:         envInt("INGEST_WORKERS", 1),
		IngestContinueOnError: envBool("INGEST_CONTINUE_ON_ERROR", false),

		ReferenceLat:         envFloat("REFERENCE_LAT", 45.7585),
		ReferenceLon:         envFloat("REFERENCE_LON", 8.5569),
		AnalyticsConcurrency: envInt("ANALYTICS_CONCURRENCY", 8),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	ref := geo.Coord{Lat: cfg.ReferenceLat, Lon: cfg.ReferenceLon}
	if !ref.Valid() {
		return nil, fmt.Errorf("REFERENCE_LAT/REFERENCE_LON out of range: %v", ref.Slice())
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

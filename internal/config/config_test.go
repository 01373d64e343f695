package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without database url")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/runpa")
	t.Setenv("PORT", "")
	t.Setenv("API_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.APIPort)
	}
	if cfg.ReferenceLat != 45.7585 || cfg.ReferenceLon != 8.5569 {
		t.Fatalf("unexpected reference point: %f, %f", cfg.ReferenceLat, cfg.ReferenceLon)
	}
	if !cfg.GeocoderEnabled || cfg.GeocoderRPS != 1 {
		t.Fatalf("unexpected geocoder defaults: %+v", cfg)
	}
	if cfg.IngestContinueOnError {
		t.Fatalf("expected abort-on-error by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/runpa")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("GEOCODER_TIMEOUT_SECONDS", "3")
	t.Setenv("REFERENCE_LAT", "10.5")
	t.Setenv("INGEST_CONTINUE_ON_ERROR", "true")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != 8080 {
		t.Fatalf("expected PORT fallback, got %d", cfg.APIPort)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigins)
	}
	if cfg.GeocoderTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.GeocoderTimeout)
	}
	if cfg.ReferenceLat != 10.5 {
		t.Fatalf("unexpected reference lat: %f", cfg.ReferenceLat)
	}
	if !cfg.IngestContinueOnError || !cfg.IsProduction() {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidReference(t *testing.T) {
	tests := []struct {
		name string
		lat  string
		lon  string
	}{
		{"latitude above 90", "91", "8.5"},
		{"longitude below -180", "45", "-180.5"},
		{"not a number", "NaN", "8.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/runpa")
			t.Setenv("REFERENCE_LAT", tt.lat)
			t.Setenv("REFERENCE_LON", tt.lon)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for reference %s,%s", tt.lat, tt.lon)
			}
		})
	}
}

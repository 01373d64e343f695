// Package metrics registers the Prometheus collectors used across the
// service. Collectors are package-level and registered on the default
// registry; /metrics serves them through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpa_ingest_runs_total",
			Help: "Total ingestion runs by outcome",
		},
		[]string{"result"}, // "ok", "failed"
	)

	IngestActivities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpa_ingest_activities_total",
			Help: "Activities processed by the ingestor",
		},
		[]string{"result"}, // "upserted", "failed"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runpa_ingest_duration_seconds",
			Help:    "Duration of a full ingestion run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Reverse geocoding
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpa_geocode_lookups_total",
			Help: "Reverse geocoding lookups by outcome",
		},
		[]string{"result"}, // "resolved", "empty", "error", "rejected", "canceled"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runpa_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Upstream Strava API
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpa_strava_requests_total",
			Help: "Requests sent to the Strava API by endpoint and status code",
		},
		[]string{"endpoint", "status_code"},
	)

	// Analytics
	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runpa_analytics_duration_seconds",
			Help:    "Duration of analytics view computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"}, // "rollups", "farthest", "leaderboards"
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runpa_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runpa_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Package geocode resolves a start coordinate to a best-effort locality.
//
// Resolution never fails from the caller's point of view: any upstream
// problem degrades to an all-nil Location and is logged here. There is no
// retry; a single attempt is made per call.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/daldosso/RunPA-backend-2025/internal/metrics"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

// DefaultNominatimURL is the public OpenStreetMap reverse endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

const breakerName = "nominatim"

// errCallerDone marks a lookup abandoned by its caller. It says nothing
// about Nominatim's health, so the breaker ignores it.
var errCallerDone = errors.New("caller context done")

// Resolver maps a coordinate to a Location.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) model.Location
}

// NopResolver never resolves anything. Used when geocoding is disabled.
type NopResolver struct{}

// Resolve returns the empty Location.
func (NopResolver) Resolve(context.Context, float64, float64) model.Location {
	return model.Location{}
}

// Options configures a NominatimResolver. Zero values select defaults.
type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// NominatimResolver queries a Nominatim reverse endpoint. Requests go
// through a token bucket (Nominatim allows 1 req/s) and a circuit breaker
// that short-circuits to an empty result while the service is failing.
type NominatimResolver struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*reverseResponse]
	logger     *slog.Logger
}

// reverseResponse is the subset of the Nominatim jsonv2 payload we read.
type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// NewNominatimResolver creates a resolver with rate limiting and a circuit
// breaker.
func NewNominatimResolver(opts Options, logger *slog.Logger) *NominatimResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "runpa-backend/1.0"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*reverseResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Geocoder circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &NominatimResolver{
		httpClient: client,
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		breaker:    breaker,
		logger:     logger,
	}
}

// Resolve looks up the locality for (lat, lon). Failures are logged and
// yield an empty Location.
func (r *NominatimResolver) Resolve(ctx context.Context, lat, lon float64) model.Location {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("Geocoder rate limit wait aborted", "lat", lat, "lon", lon, "error", err)
		metrics.GeocodeLookups.WithLabelValues("canceled").Inc()
		return model.Location{}
	}

	resp, err := r.breaker.Execute(func() (*reverseResponse, error) {
		resp, err := r.lookup(ctx, lat, lon)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return resp, err
	})
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			result = "rejected"
		case errors.Is(err, errCallerDone):
			result = "canceled"
		}
		r.logger.Warn("Reverse geocoding failed", "lat", lat, "lon", lon, "result", result, "error", err)
		metrics.GeocodeLookups.WithLabelValues(result).Inc()
		return model.Location{}
	}

	loc := locationFromResponse(resp)
	if loc.IsEmpty() {
		metrics.GeocodeLookups.WithLabelValues("empty").Inc()
	} else {
		metrics.GeocodeLookups.WithLabelValues("resolved").Inc()
	}
	return loc
}

func (r *NominatimResolver) lookup(ctx context.Context, lat, lon float64) (*reverseResponse, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse geocoder url: %w", err)
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoder returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	return &decoded, nil
}

// locationFromResponse applies the city > town > village precedence.
// A Nominatim "Unable to geocode" answer maps to the empty Location.
func locationFromResponse(resp *reverseResponse) model.Location {
	if resp == nil || resp.Error != "" {
		return model.Location{}
	}
	a := resp.Address
	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}
	return model.NewLocation(city, a.State, a.Country)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

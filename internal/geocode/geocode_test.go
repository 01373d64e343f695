package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(url string) *NominatimResolver {
	return NewNominatimResolver(Options{
		BaseURL:           url,
		RequestsPerSecond: 1000,
		Timeout:           2 * time.Second,
	}, testLogger())
}

func strOrNil(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCity string
	}{
		{"city wins", `{"address":{"city":"Varese","town":"Gavirate","village":"Oltrona","state":"Lombardia","country":"Italia"}}`, "Varese"},
		{"town fallback", `{"address":{"town":"Gavirate","village":"Oltrona","state":"Lombardia","country":"Italia"}}`, "Gavirate"},
		{"village fallback", `{"address":{"village":"Oltrona","state":"Lombardia","country":"Italia"}}`, "Oltrona"},
		{"no locality", `{"address":{"state":"Lombardia","country":"Italia"}}`, "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("format") != "json" {
					t.Errorf("missing format=json")
				}
				if r.Header.Get("User-Agent") == "" {
					t.Errorf("missing user agent")
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			loc := newTestResolver(server.URL).Resolve(context.Background(), 45.8, 8.8)
			if got := strOrNil(loc.City); got != tt.wantCity {
				t.Fatalf("city = %s, want %s", got, tt.wantCity)
			}
			if got := strOrNil(loc.State); got != "Lombardia" {
				t.Fatalf("state = %s, want Lombardia", got)
			}
			if got := strOrNil(loc.Country); got != "Italia" {
				t.Fatalf("country = %s, want Italia", got)
			}
		})
	}
}

func TestResolvePassesCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") != "45.7585" || r.URL.Query().Get("lon") != "8.5569" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"address":{"city":"Gallarate"}}`))
	}))
	defer server.Close()

	loc := newTestResolver(server.URL).Resolve(context.Background(), 45.7585, 8.5569)
	if strOrNil(loc.City) != "Gallarate" {
		t.Fatalf("unexpected city %s", strOrNil(loc.City))
	}
}

func TestResolveFailuresYieldEmptyLocation(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"address":`))
		}},
		{"unable to geocode", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			loc := newTestResolver(server.URL).Resolve(context.Background(), 1, 2)
			if !loc.IsEmpty() {
				t.Fatalf("expected empty location, got %+v", loc)
			}
		})
	}
}

func TestResolveNetworkErrorYieldsEmptyLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	loc := newTestResolver(url).Resolve(context.Background(), 1, 2)
	if !loc.IsEmpty() {
		t.Fatalf("expected empty location, got %+v", loc)
	}
}

func TestResolveSingleAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	newTestResolver(server.URL).Resolve(context.Background(), 1, 2)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", n)
	}
}

func TestResolveBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	for i := 0; i < 8; i++ {
		if loc := resolver.Resolve(context.Background(), 1, 2); !loc.IsEmpty() {
			t.Fatalf("expected empty location")
		}
	}
	if n := atomic.LoadInt32(&calls); n != 5 {
		t.Fatalf("expected breaker to stop upstream calls after 5 failures, got %d calls", n)
	}
}

func TestResolveCallerCancellationDoesNotTripBreaker(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"address":{"city":"Varese","country":"Italia"}}`))
	}))
	defer server.Close()

	resolver := newTestResolver(server.URL)
	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		loc := resolver.Resolve(ctx, 45.8, 8.8)
		cancel()
		if !loc.IsEmpty() {
			t.Fatalf("expected empty location for abandoned lookup, got %+v", loc)
		}
	}

	healthy.Store(true)
	loc := resolver.Resolve(context.Background(), 45.8, 8.8)
	if strOrNil(loc.City) != "Varese" {
		t.Fatalf("breaker tripped by caller deadlines: city = %s", strOrNil(loc.City))
	}
}

func TestNopResolver(t *testing.T) {
	if loc := (NopResolver{}).Resolve(context.Background(), 1, 2); !loc.IsEmpty() {
		t.Fatalf("expected empty location")
	}
}

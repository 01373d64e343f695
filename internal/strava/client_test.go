package strava

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientGetsAthlete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/athlete" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing auth header")
		}
		_, _ = w.Write([]byte(`{"id":42,"firstname":"Anna","lastname":"Rossi","city":"Varese","country":"Italy","profile":"https://img/1.jpg","premium":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api", 6000, 1, testLogger())
	athlete, err := client.GetAthlete(context.Background(), "token")
	if err != nil {
		t.Fatalf("get athlete: %v", err)
	}
	if athlete.ID != 42 || athlete.LastName != "Rossi" || athlete.Profile != "https://img/1.jpg" {
		t.Fatalf("unexpected athlete: %+v", athlete)
	}
}

func TestClientDecodesActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
  {"id":1,"name":"Morning Run","distance":5012.3,"moving_time":1500,"elapsed_time":1600,
   "total_elevation_gain":42.5,"type":"Run","start_date":"2024-03-01T07:00:00Z",
   "start_latlng":[45.81,8.83],"location_city":"Varese","location_state":null,"location_country":"Italy",
   "athlete":{"id":42,"resource_state":1},"kudos_count":7},
  {"id":2,"name":"Indoor","type":"Workout","start_date":"2024-03-02T07:00:00Z","start_latlng":[]}
]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 6000, 1, testLogger())
	activities, err := client.ListActivities(context.Background(), "token", 1, 30)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}

	first := activities[0]
	if first.Distance == nil || *first.Distance != 5012.3 {
		t.Fatalf("unexpected distance: %v", first.Distance)
	}
	if len(first.StartLatLng) != 2 || first.StartLatLng[0] != 45.81 {
		t.Fatalf("unexpected start_latlng: %v", first.StartLatLng)
	}
	if first.LocationCity == nil || *first.LocationCity != "Varese" || first.LocationState != nil {
		t.Fatalf("unexpected location fields: %+v", first)
	}
	if first.Athlete.ID != 42 {
		t.Fatalf("unexpected athlete id: %d", first.Athlete.ID)
	}

	second := activities[1]
	if second.Distance != nil || len(second.StartLatLng) != 0 {
		t.Fatalf("expected missing distance and coordinate: %+v", second)
	}
}

func TestClientListAllActivitiesPaginates(t *testing.T) {
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		pages = append(pages, page)

		count := perPage
		if page == 2 {
			count = 3
		}
		items := make([]string, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"name":"a","type":"Run","start_date":"2024-01-01T00:00:00Z"}`, page*1000+i))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 6000, 5, testLogger())
	activities, err := client.ListAllActivities(context.Background(), "token")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(activities) != defaultPerPage+3 {
		t.Fatalf("expected %d activities, got %d", defaultPerPage+3, len(activities))
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Fatalf("unexpected pages requested: %v", pages)
	}
}

func TestClientListAllActivitiesStopsAtMaxPages(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		items := make([]string, perPage)
		for i := range items {
			items[i] = fmt.Sprintf(`{"id":%d}`, calls*1000+i)
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 6000, 2, testLogger())
	if _, err := client.ListAllActivities(context.Background(), "token"); err != nil {
		t.Fatalf("list all: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestClientTypedErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
		rateLimited  bool
	}{
		{"unauthorized", http.StatusUnauthorized, true, false},
		{"rate limited", http.StatusTooManyRequests, false, true},
		{"server error", http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, 6000, 1, testLogger())
			_, err := client.ListAllActivities(context.Background(), "token")
			if err == nil {
				t.Fatalf("expected error")
			}
			if IsUnauthorized(err) != tt.unauthorized {
				t.Fatalf("IsUnauthorized = %v, want %v", IsUnauthorized(err), tt.unauthorized)
			}
			if IsRateLimited(err) != tt.rateLimited {
				t.Fatalf("IsRateLimited = %v, want %v", IsRateLimited(err), tt.rateLimited)
			}
		})
	}
}

func TestClientRequiresToken(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 6000, 1, testLogger())
	if _, err := client.GetAthlete(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"
)

type memStore struct {
	mu         sync.Mutex
	athletes   map[int64]model.Athlete
	activities map[int64]model.Activity
	lastCoord  map[int64]geo.Coord
	failOn     map[int64]bool
	writes     int
}

func newMemStore() *memStore {
	return &memStore{
		athletes:   make(map[int64]model.Athlete),
		activities: make(map[int64]model.Activity),
		lastCoord:  make(map[int64]geo.Coord),
		failOn:     make(map[int64]bool),
	}
}

func (s *memStore) UpsertAthlete(_ context.Context, a model.Athlete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.athletes[a.ID]
	merge := func(next, old string) string {
		if next == "" {
			return old
		}
		return next
	}
	prev.ID = a.ID
	prev.FirstName = merge(a.FirstName, prev.FirstName)
	prev.LastName = merge(a.LastName, prev.LastName)
	prev.City = merge(a.City, prev.City)
	prev.Profile = merge(a.Profile, prev.Profile)
	s.athletes[a.ID] = prev
	return nil
}

func (s *memStore) UpsertActivity(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[a.ID] {
		return errors.New("write failed")
	}
	s.activities[a.ID] = a
	s.writes++
	return nil
}

func (s *memStore) UpdateAthleteLastCoord(_ context.Context, id int64, c geo.Coord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCoord[id] = c
	return nil
}

type fakeResolver struct {
	mu    sync.Mutex
	loc   model.Location
	calls int
}

func (r *fakeResolver) Resolve(context.Context, float64, float64) model.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.loc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func str(s string) *string { return &s }

func dist(m float64) *float64 { return &m }

var profile = model.Athlete{ID: 7, FirstName: "Anna", LastName: "Rossi", City: "Varese"}

func TestIngestUpsertIsIdempotent(t *testing.T) {
	store := newMemStore()
	in := New(store, nil, Options{}, testLogger())

	first := []strava.RawActivity{{ID: 1, Name: "Run", Distance: dist(1000), StartDate: "2024-01-01T07:00:00Z"}}
	second := []strava.RawActivity{{ID: 1, Name: "Renamed", Distance: dist(2500), StartDate: "2024-01-01T07:00:00Z"}}

	if _, err := in.Ingest(context.Background(), profile, first); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := in.Ingest(context.Background(), profile, second); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if len(store.activities) != 1 {
		t.Fatalf("expected 1 stored activity, got %d", len(store.activities))
	}
	got := store.activities[1]
	if got.Name != "Renamed" || *got.Distance != 2500 {
		t.Fatalf("expected latest values, got %+v", got)
	}
	if got.Athlete.ID != 7 || got.Athlete.LastName != "Rossi" {
		t.Fatalf("unexpected athlete snapshot: %+v", got.Athlete)
	}
}

func TestIngestKeepsProviderCity(t *testing.T) {
	store := newMemStore()
	resolver := &fakeResolver{loc: model.NewLocation("Milano", "Lombardia", "Italia")}
	in := New(store, resolver, Options{}, testLogger())

	raw := []strava.RawActivity{{
		ID:           1,
		StartLatLng:  []float64{45.46, 9.19},
		LocationCity: str("Varese"),
	}}
	if _, err := in.Ingest(context.Background(), profile, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if resolver.calls != 0 {
		t.Fatalf("geocoder should not be called when a city is present")
	}
	loc := store.activities[1].Location
	if loc.City == nil || *loc.City != "Varese" {
		t.Fatalf("provider city overwritten: %+v", loc)
	}
}

func TestIngestGeocodesMissingCity(t *testing.T) {
	store := newMemStore()
	resolver := &fakeResolver{loc: model.NewLocation("Milano", "Lombardia", "Italia")}
	in := New(store, resolver, Options{}, testLogger())

	raw := []strava.RawActivity{{
		ID:              1,
		StartLatLng:     []float64{45.46, 9.19},
		LocationCountry: str("Italy"),
	}}
	result, err := in.Ingest(context.Background(), profile, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	loc := store.activities[1].Location
	if loc.City == nil || *loc.City != "Milano" || *loc.Country != "Italia" {
		t.Fatalf("expected geocoded location to replace provider data, got %+v", loc)
	}
	if result.Geocoded != 1 || !result.Records[0].Geocoded {
		t.Fatalf("expected geocoded record: %+v", result)
	}
}

func TestIngestNullLocationWithoutCoordinate(t *testing.T) {
	store := newMemStore()
	resolver := &fakeResolver{loc: model.NewLocation("Milano", "", "")}
	in := New(store, resolver, Options{}, testLogger())

	raw := []strava.RawActivity{
		{ID: 1},
		{ID: 2, StartLatLng: []float64{45.46}},
		{ID: 3, StartLatLng: []float64{}},
	}
	if _, err := in.Ingest(context.Background(), profile, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if resolver.calls != 0 {
		t.Fatalf("geocoder called %d times without a valid coordinate", resolver.calls)
	}
	for id, a := range store.activities {
		if !a.Location.IsEmpty() || a.StartLatLng != nil {
			t.Fatalf("activity %d: expected null location and coordinate, got %+v", id, a)
		}
	}
}

func TestIngestAbortsOnFirstFailure(t *testing.T) {
	store := newMemStore()
	store.failOn[2] = true
	in := New(store, nil, Options{}, testLogger())

	raw := []strava.RawActivity{{ID: 1}, {ID: 2}, {ID: 3}}
	_, err := in.Ingest(context.Background(), profile, raw)
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := store.activities[3]; ok {
		t.Fatalf("activity after the failure should not be written")
	}
}

func TestIngestContinueOnError(t *testing.T) {
	store := newMemStore()
	store.failOn[2] = true
	in := New(store, nil, Options{ContinueOnError: true}, testLogger())

	raw := []strava.RawActivity{{ID: 1}, {ID: 2}, {ID: 3}}
	result, err := in.Ingest(context.Background(), profile, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Upserted != 2 || result.Failed != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected counts: %s", result.Summary())
	}
	if len(result.Records) != 3 || result.Records[1].Success || result.Records[1].ActivityID != 2 {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if len(result.Activities) != 2 || result.Activities[1].ID != 3 {
		t.Fatalf("unexpected ingested activities: %+v", result.Activities)
	}

	report := result.Report()
	if report.Upserted != 2 || report.Failed != 1 || len(report.Records) != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	b, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if !strings.Contains(string(b), `{"activity_id":2,"success":false,"error":`) {
		t.Fatalf("failed record missing from report: %s", b)
	}
}

func TestReportHasEmptyRecordsArray(t *testing.T) {
	b, err := json.Marshal((&Result{AthleteID: 7}).Report())
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if !strings.Contains(string(b), `"records":[]`) {
		t.Fatalf("expected empty records array: %s", b)
	}
}

func TestIngestParallel(t *testing.T) {
	store := newMemStore()
	resolver := &fakeResolver{loc: model.NewLocation("Varese", "", "Italia")}
	in := New(store, resolver, Options{Workers: 4}, testLogger())

	raw := make([]strava.RawActivity, 50)
	for i := range raw {
		raw[i] = strava.RawActivity{ID: int64(i + 1), StartLatLng: []float64{45.8, 8.8}}
	}
	result, err := in.Ingest(context.Background(), profile, raw)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(store.activities) != 50 || result.Upserted != 50 {
		t.Fatalf("expected 50 upserts, got store=%d result=%d", len(store.activities), result.Upserted)
	}
	for i, a := range result.Activities {
		if a.ID != int64(i+1) {
			t.Fatalf("activities out of input order at %d: %d", i, a.ID)
		}
	}
}

func TestIngestParallelAborts(t *testing.T) {
	store := newMemStore()
	store.failOn[5] = true
	in := New(store, nil, Options{Workers: 3}, testLogger())

	raw := make([]strava.RawActivity, 20)
	for i := range raw {
		raw[i] = strava.RawActivity{ID: int64(i + 1)}
	}
	if _, err := in.Ingest(context.Background(), profile, raw); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIngestRefreshesLastCoordinate(t *testing.T) {
	store := newMemStore()
	in := New(store, nil, Options{}, testLogger())

	raw := []strava.RawActivity{
		{ID: 1, StartDate: "2024-01-01T07:00:00Z", StartLatLng: []float64{45.0, 8.0}},
		{ID: 2, StartDate: "2024-02-01T07:00:00Z", StartLatLng: []float64{46.0, 9.0}},
		{ID: 3, StartDate: "2024-03-01T07:00:00Z"},
	}
	if _, err := in.Ingest(context.Background(), profile, raw); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	c, ok := store.lastCoord[7]
	if !ok || c.Lat != 46.0 || c.Lon != 9.0 {
		t.Fatalf("unexpected last coordinate: %+v (set=%v)", c, ok)
	}
}

func TestIngestMergesProfile(t *testing.T) {
	store := newMemStore()
	in := New(store, nil, Options{}, testLogger())

	if _, err := in.Ingest(context.Background(), profile, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	partial := model.Athlete{ID: 7, FirstName: "Annalisa"}
	if _, err := in.Ingest(context.Background(), partial, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	got := store.athletes[7]
	if got.FirstName != "Annalisa" || got.LastName != "Rossi" || got.City != "Varese" {
		t.Fatalf("expected merge, got %+v", got)
	}
}

func TestIngestRequiresAthleteID(t *testing.T) {
	in := New(newMemStore(), nil, Options{}, testLogger())
	if _, err := in.Ingest(context.Background(), model.Athlete{}, nil); err == nil {
		t.Fatalf("expected error for missing athlete id")
	}
}

func TestToActivityRejectsInvalidCoordinate(t *testing.T) {
	a := ToActivity(profile.Ref(), strava.RawActivity{ID: 1, StartLatLng: []float64{120, 8}})
	if a.StartLatLng != nil {
		t.Fatalf("out-of-range latitude should not become a coordinate")
	}
	b := ToActivity(profile.Ref(), strava.RawActivity{ID: 2, LocationCity: str(""), LocationState: str("Lombardia")})
	if b.Location.City != nil || b.Location.State == nil {
		t.Fatalf("unexpected location: %+v", b.Location)
	}
}

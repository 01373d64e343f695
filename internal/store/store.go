// Package store persists athletes and activities in Postgres. Every query
// goes through a statement prepared in internal/db.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

// Store is the pgx-backed Athlete/Activity collection pair.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a pool whose connections have the RunPA statements prepared.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertAthlete writes the profile keyed by id. Empty fields keep the
// stored value.
func (s *Store) UpsertAthlete(ctx context.Context, a model.Athlete) error {
	_, err := s.pool.Exec(ctx, "upsert_athlete",
		a.ID, nilEmpty(a.FirstName), nilEmpty(a.LastName), nilEmpty(a.City),
		nilEmpty(a.State), nilEmpty(a.Country), nilEmpty(a.Profile), nilEmpty(a.Email),
	)
	if err != nil {
		return fmt.Errorf("upsert athlete %d: %w", a.ID, err)
	}
	return nil
}

// UpsertActivity replaces the stored activity with the same id.
func (s *Store) UpsertActivity(ctx context.Context, a model.Activity) error {
	var latlng []float64
	if a.StartLatLng != nil {
		latlng = a.StartLatLng.Slice()
	}
	_, err := s.pool.Exec(ctx, "upsert_activity",
		a.ID, a.Athlete.ID, nilEmpty(a.Athlete.FirstName), nilEmpty(a.Athlete.LastName), a.Name,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.Type, a.StartDate, latlng,
		a.Location.City, a.Location.State, a.Location.Country,
	)
	if err != nil {
		return fmt.Errorf("upsert activity %d: %w", a.ID, err)
	}
	return nil
}

// UpdateAthleteLastCoord stores the derived last-known coordinate.
func (s *Store) UpdateAthleteLastCoord(ctx context.Context, athleteID int64, c geo.Coord) error {
	if _, err := s.pool.Exec(ctx, "update_athlete_last_coord", athleteID, c.Lat, c.Lon); err != nil {
		return fmt.Errorf("update last coordinate for athlete %d: %w", athleteID, err)
	}
	return nil
}

// ListAthletes returns every athlete ordered by id.
func (s *Store) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	rows, err := s.pool.Query(ctx, "list_athletes")
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	return collectAthletes(rows)
}

// AthletesByID returns the athletes with the given ids, keyed by id.
// Unknown ids are absent from the map.
func (s *Store) AthletesByID(ctx context.Context, ids []int64) (map[int64]model.Athlete, error) {
	out := make(map[int64]model.Athlete, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, "athletes_by_ids", ids)
	if err != nil {
		return nil, fmt.Errorf("athletes by id: %w", err)
	}
	athletes, err := collectAthletes(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range athletes {
		out[a.ID] = a
	}
	return out, nil
}

// ActivitiesByAthlete returns the athlete's activities in start_date, id
// order.
func (s *Store) ActivitiesByAthlete(ctx context.Context, athleteID int64) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx, "activities_by_athlete", athleteID)
	if err != nil {
		return nil, fmt.Errorf("activities for athlete %d: %w", athleteID, err)
	}
	return collectActivities(rows)
}

// ActivitiesWithCoords returns only activities carrying a two-element
// start coordinate, in start_date, id order.
func (s *Store) ActivitiesWithCoords(ctx context.Context, athleteID int64) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx, "activities_with_coords", athleteID)
	if err != nil {
		return nil, fmt.Errorf("activities with coordinates for athlete %d: %w", athleteID, err)
	}
	return collectActivities(rows)
}

// TopAthletes runs the grouped aggregation for metric and returns at most
// limit rows, metric descending then athlete id ascending.
func (s *Store) TopAthletes(ctx context.Context, metric model.Metric, limit int) ([]model.AthleteMetric, error) {
	stmt, err := aggregateStatement(metric)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("top athletes by %s: %w", metric, err)
	}
	defer rows.Close()

	var out []model.AthleteMetric
	for rows.Next() {
		var m model.AthleteMetric
		if err := rows.Scan(&m.AthleteID, &m.FirstName, &m.LastName, &m.Value); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", metric, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top athletes by %s: %w", metric, err)
	}
	return out, nil
}

func aggregateStatement(metric model.Metric) (string, error) {
	switch metric {
	case model.MetricTotalDistance:
		return "top_total_distance", nil
	case model.MetricLongestActivity:
		return "top_longest_activity", nil
	case model.MetricActivityCount:
		return "top_activity_count", nil
	default:
		return "", fmt.Errorf("unknown metric %q", metric)
	}
}

func collectAthletes(rows pgx.Rows) ([]model.Athlete, error) {
	defer rows.Close()
	var out []model.Athlete
	for rows.Next() {
		var a model.Athlete
		if err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.City, &a.State,
			&a.Country, &a.Profile, &a.Email, &a.LastLat, &a.LastLng, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate athletes: %w", err)
	}
	return out, nil
}

func collectActivities(rows pgx.Rows) ([]model.Activity, error) {
	defer rows.Close()
	var out []model.Activity
	for rows.Next() {
		var (
			a      model.Activity
			latlng []float64
		)
		if err := rows.Scan(
			&a.ID, &a.Athlete.ID, &a.Athlete.FirstName, &a.Athlete.LastName, &a.Name,
			&a.Distance, &a.MovingTime, &a.ElapsedTime, &a.TotalElevationGain,
			&a.Type, &a.StartDate, &latlng,
			&a.Location.City, &a.Location.State, &a.Location.Country,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if c, ok := geo.CoordFromSlice(latlng); ok {
			a.StartLatLng = &c
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

// nilEmpty returns nil for empty strings so COALESCE keeps stored values.
func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

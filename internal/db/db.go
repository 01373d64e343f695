// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daldosso/RunPA-backend-2025/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must exist:
// prepared statements are registered on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies schema.sql over a dedicated connection. It runs before the
// pool exists because prepared statements reference the tables.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Ingestion: athletes. Empty incoming fields keep the stored value.
		"upsert_athlete": `
			INSERT INTO ` + config.AthletesTable + ` (
				id, firstname, lastname, city, state, country, profile, email
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET
				firstname = COALESCE(EXCLUDED.firstname, ` + config.AthletesTable + `.firstname),
				lastname = COALESCE(EXCLUDED.lastname, ` + config.AthletesTable + `.lastname),
				city = COALESCE(EXCLUDED.city, ` + config.AthletesTable + `.city),
				state = COALESCE(EXCLUDED.state, ` + config.AthletesTable + `.state),
				country = COALESCE(EXCLUDED.country, ` + config.AthletesTable + `.country),
				profile = COALESCE(EXCLUDED.profile, ` + config.AthletesTable + `.profile),
				email = COALESCE(EXCLUDED.email, ` + config.AthletesTable + `.email),
				updated_at = NOW()`,
		"update_athlete_last_coord": "UPDATE " + config.AthletesTable + " SET last_lat = $2, last_lng = $3, updated_at = NOW() WHERE id = $1",

		// Ingestion: activities. Full-document replace keyed by provider id.
		"upsert_activity": `
			INSERT INTO ` + config.ActivitiesTable + ` (
				id, athlete_id, athlete_firstname, athlete_lastname, name,
				distance, moving_time, elapsed_time, total_elevation_gain,
				type, start_date, start_latlng,
				location_city, location_state, location_country
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (id) DO UPDATE SET
				athlete_id = EXCLUDED.athlete_id,
				athlete_firstname = EXCLUDED.athlete_firstname,
				athlete_lastname = EXCLUDED.athlete_lastname,
				name = EXCLUDED.name,
				distance = EXCLUDED.distance,
				moving_time = EXCLUDED.moving_time,
				elapsed_time = EXCLUDED.elapsed_time,
				total_elevation_gain = EXCLUDED.total_elevation_gain,
				type = EXCLUDED.type,
				start_date = EXCLUDED.start_date,
				start_latlng = EXCLUDED.start_latlng,
				location_city = EXCLUDED.location_city,
				location_state = EXCLUDED.location_state,
				location_country = EXCLUDED.location_country,
				updated_at = NOW()`,

		// Analytics: finds
		"list_athletes":         "SELECT " + athleteColumns + " FROM " + config.AthletesTable + " ORDER BY id",
		"athletes_by_ids":       "SELECT " + athleteColumns + " FROM " + config.AthletesTable + " WHERE id = ANY($1) ORDER BY id",
		"activities_by_athlete": "SELECT " + activityColumns + " FROM " + config.ActivitiesTable +
			" WHERE athlete_id = $1 ORDER BY start_date, id",
		"activities_with_coords": "SELECT " + activityColumns + " FROM " + config.ActivitiesTable +
			" WHERE athlete_id = $1 AND start_latlng IS NOT NULL AND array_length(start_latlng, 1) = 2 ORDER BY start_date, id",

		// Analytics: grouped aggregates for leaderboards
		"top_total_distance": `
			SELECT athlete_id, COALESCE(MAX(athlete_firstname), ''), COALESCE(MAX(athlete_lastname), ''), SUM(distance) AS metric
			FROM ` + config.ActivitiesTable + `
			WHERE distance IS NOT NULL
			GROUP BY athlete_id
			ORDER BY metric DESC, athlete_id
			LIMIT $1`,
		"top_longest_activity": `
			SELECT athlete_id, COALESCE(MAX(athlete_firstname), ''), COALESCE(MAX(athlete_lastname), ''), MAX(distance) AS metric
			FROM ` + config.ActivitiesTable + `
			WHERE distance IS NOT NULL
			GROUP BY athlete_id
			ORDER BY metric DESC, athlete_id
			LIMIT $1`,
		"top_activity_count": `
			SELECT athlete_id, COALESCE(MAX(athlete_firstname), ''), COALESCE(MAX(athlete_lastname), ''), COUNT(*)::double precision AS metric
			FROM ` + config.ActivitiesTable + `
			GROUP BY athlete_id
			ORDER BY metric DESC, athlete_id
			LIMIT $1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

const athleteColumns = "id, COALESCE(firstname, ''), COALESCE(lastname, ''), COALESCE(city, ''), COALESCE(state, ''), " +
	"COALESCE(country, ''), COALESCE(profile, ''), COALESCE(email, ''), last_lat, last_lng, updated_at"

const activityColumns = "id, athlete_id, COALESCE(athlete_firstname, ''), COALESCE(athlete_lastname, ''), name, " +
	"distance, moving_time, elapsed_time, total_elevation_gain, type, start_date, start_latlng, " +
	"location_city, location_state, location_country"

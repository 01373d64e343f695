// Command ingest is the RunPA ingestion and analytics CLI.
//
// Usage:
//
//	runpa-ingest migrate
//	runpa-ingest sync --token $STRAVA_TOKEN --workers 4 --continue-on-error
//	runpa-ingest stats rollups
//	runpa-ingest stats farthest --lat 45.7585 --lon 8.5569
//	runpa-ingest stats leaderboards
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daldosso/RunPA-backend-2025/internal/analytics"
	"github.com/daldosso/RunPA-backend-2025/internal/config"
	"github.com/daldosso/RunPA-backend-2025/internal/db"
	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/geocode"
	"github.com/daldosso/RunPA-backend-2025/internal/ingest"
	"github.com/daldosso/RunPA-backend-2025/internal/store"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "runpa-ingest",
		Short: "RunPA ingestion and analytics CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	var (
		token           string
		workers         int
		continueOnError bool
		noGeocode       bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch an athlete's Strava activities, upsert them and print a JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("STRAVA_ACCESS_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("--token or STRAVA_ACCESS_TOKEN is required")
			}
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if !cmd.Flags().Changed("workers") {
					workers = cfg.IngestWorkers
				}
				if !cmd.Flags().Changed("continue-on-error") {
					continueOnError = cfg.IngestContinueOnError
				}

				client := strava.NewClient(cfg.StravaAPIBaseURL, cfg.StravaRequestsPerMinute, cfg.StravaMaxPages, logger)
				athlete, err := client.GetAthlete(ctx, token)
				if err != nil {
					return fmt.Errorf("fetch athlete: %w", err)
				}
				raw, err := client.ListAllActivities(ctx, token)
				if err != nil {
					return fmt.Errorf("fetch activities: %w", err)
				}
				logger.Info("Fetched activities", "athlete_id", athlete.ID, "count", len(raw))

				var geocoder geocode.Resolver = geocode.NopResolver{}
				if cfg.GeocoderEnabled && !noGeocode {
					geocoder = geocode.NewNominatimResolver(geocode.Options{
						BaseURL:           cfg.GeocoderURL,
						UserAgent:         cfg.GeocoderUserAgent,
						RequestsPerSecond: cfg.GeocoderRPS,
						Timeout:           cfg.GeocoderTimeout,
					}, logger)
				}

				in := ingest.New(store.New(pool.Pool), geocoder, ingest.Options{
					Workers:         workers,
					ContinueOnError: continueOnError,
				}, logger)
				result, err := in.Ingest(ctx, ingest.ProfileFromStrava(athlete), raw)
				for _, e := range result.Errors {
					logger.Error("ingest error", "error", e)
				}
				// Records written before an abort are still reported.
				if perr := printJSON(cmd, result.Report()); perr != nil {
					return perr
				}
				if err != nil {
					return err
				}
				logger.Info("Sync finished", "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Strava access token (defaults to STRAVA_ACCESS_TOKEN)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent activity workers")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Record per-activity failures instead of aborting")
	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "Skip reverse geocoding of activities without a city")
	return cmd
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print analytics views as JSON",
	}

	view := func(use, short string, compute func(ctx context.Context, e *analytics.Engine) (interface{}, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
					ref := geo.Coord{Lat: cfg.ReferenceLat, Lon: cfg.ReferenceLon}
					if cmd.Flags().Changed("lat") {
						ref.Lat = lat
					}
					if cmd.Flags().Changed("lon") {
						ref.Lon = lon
					}
					if !ref.Valid() {
						return fmt.Errorf("invalid reference point %v", ref.Slice())
					}
					engine := analytics.New(store.New(pool.Pool), analytics.Options{
						Reference:   &ref,
						Concurrency: cfg.AnalyticsConcurrency,
					}, logger)

					start := time.Now()
					v, err := compute(ctx, engine)
					if err != nil {
						return err
					}
					logger.Info("View computed", "view", use, "duration", time.Since(start).Round(time.Millisecond))
					return printJSON(cmd, v)
				})
			},
		}
	}

	cmd.AddCommand(view("rollups", "Total distance and latest activity per athlete",
		func(ctx context.Context, e *analytics.Engine) (interface{}, error) { return e.Rollups(ctx) }))
	cmd.AddCommand(view("farthest", "Activity farthest from the reference point per athlete",
		func(ctx context.Context, e *analytics.Engine) (interface{}, error) { return e.Farthest(ctx) }))
	cmd.AddCommand(view("leaderboards", "Top 5 by total distance, longest activity and count",
		func(ctx context.Context, e *analytics.Engine) (interface{}, error) { return e.Leaderboards(ctx) }))

	cmd.PersistentFlags().Float64Var(&lat, "lat", analytics.DefaultReference.Lat, "Reference latitude for farthest")
	cmd.PersistentFlags().Float64Var(&lon, "lon", analytics.DefaultReference.Lon, "Reference longitude for farthest")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithDB handles config loading, DB connection, and context cancellation.
func runWithDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

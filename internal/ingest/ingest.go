// Package ingest reconciles upstream Strava activities into the store.
//
// Each call upserts the athlete profile, derives a Location for every
// activity (falling back to reverse geocoding when the provider sent no
// city), and upserts every activity keyed by its Strava id. Re-running the
// same batch leaves the store unchanged.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/geocode"
	"github.com/daldosso/RunPA-backend-2025/internal/metrics"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"
)

// Store is the write side the ingestor needs.
type Store interface {
	UpsertAthlete(ctx context.Context, a model.Athlete) error
	UpsertActivity(ctx context.Context, a model.Activity) error
	UpdateAthleteLastCoord(ctx context.Context, athleteID int64, c geo.Coord) error
}

// Options controls the ingestion policy.
type Options struct {
	// Workers > 1 resolves and upserts activities concurrently.
	Workers int
	// ContinueOnError records per-record failures instead of aborting the
	// whole call on the first one.
	ContinueOnError bool
}

// Ingestor writes athletes and activities.
type Ingestor struct {
	store    Store
	geocoder geocode.Resolver
	opts     Options
	logger   *slog.Logger
}

// New creates an Ingestor. A nil geocoder disables the fallback lookup.
func New(store Store, geocoder geocode.Resolver, opts Options, logger *slog.Logger) *Ingestor {
	if geocoder == nil {
		geocoder = geocode.NopResolver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Ingestor{store: store, geocoder: geocoder, opts: opts, logger: logger}
}

// ProfileFromStrava maps the upstream profile onto the stored athlete.
func ProfileFromStrava(a strava.Athlete) model.Athlete {
	return model.Athlete{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		City:      a.City,
		State:     a.State,
		Country:   a.Country,
		Profile:   a.Profile,
		Email:     a.Email,
	}
}

// Ingest upserts the profile and every raw activity.
//
// By default the first failure aborts the call and is returned. With
// ContinueOnError every activity is attempted, outcomes are reported per
// record and the error is non-nil only when the profile upsert failed.
func (in *Ingestor) Ingest(ctx context.Context, profile model.Athlete, raw []strava.RawActivity) (Result, error) {
	start := time.Now()
	result := Result{AthleteID: profile.ID}

	err := in.run(ctx, profile, raw, &result)
	result.Duration = time.Since(start)
	metrics.IngestDuration.Observe(result.Duration.Seconds())
	if err != nil {
		metrics.IngestRuns.WithLabelValues("failed").Inc()
		in.logger.Error("Ingestion failed", "athlete_id", profile.ID, "error", err)
		return result, err
	}
	metrics.IngestRuns.WithLabelValues("ok").Inc()
	in.logger.Info("Ingestion complete", "summary", result.Summary())
	return result, nil
}

func (in *Ingestor) run(ctx context.Context, profile model.Athlete, raw []strava.RawActivity, result *Result) error {
	if profile.ID == 0 {
		return errors.New("athlete profile has no id")
	}
	if err := in.store.UpsertAthlete(ctx, profile); err != nil {
		return fmt.Errorf("ingest athlete: %w", err)
	}

	ref := profile.Ref()
	outcomes := make([]outcome, len(raw))
	var err error
	if in.opts.Workers > 1 && len(raw) > 1 {
		err = in.parallel(ctx, ref, raw, outcomes)
	} else {
		err = in.sequential(ctx, ref, raw, outcomes)
	}

	for _, o := range outcomes {
		if !o.done {
			continue
		}
		rec := RecordResult{ActivityID: o.activity.ID, Success: o.err == nil, Geocoded: o.geocoded}
		if o.err != nil {
			rec.Error = o.err.Error()
			result.Failed++
			result.AddErrorf("activity %d: %v", o.activity.ID, o.err)
		} else {
			result.Upserted++
			result.Activities = append(result.Activities, o.activity)
		}
		if o.geocoded {
			result.Geocoded++
		}
		result.Records = append(result.Records, rec)
	}
	metrics.IngestActivities.WithLabelValues("upserted").Add(float64(result.Upserted))
	metrics.IngestActivities.WithLabelValues("failed").Add(float64(result.Failed))

	if err != nil {
		return err
	}

	if latest, ok := latestWithCoord(result.Activities); ok {
		if err := in.store.UpdateAthleteLastCoord(ctx, profile.ID, *latest.StartLatLng); err != nil {
			if !in.opts.ContinueOnError {
				return fmt.Errorf("ingest athlete: %w", err)
			}
			result.AddErrorf("last coordinate: %v", err)
		}
	}
	return nil
}

// outcome is the per-slot state written by workers.
type outcome struct {
	activity model.Activity
	geocoded bool
	err      error
	done     bool
}

func (in *Ingestor) sequential(ctx context.Context, ref model.AthleteRef, raw []strava.RawActivity, outcomes []outcome) error {
	for i := range raw {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcomes[i] = in.ingestOne(ctx, ref, raw[i])
		if outcomes[i].err != nil && !in.opts.ContinueOnError {
			return fmt.Errorf("ingest activity %d: %w", raw[i].ID, outcomes[i].err)
		}
	}
	return nil
}

// parallel fans activities out to a bounded worker pool. Each worker owns
// the outcome slot of the index it received, so no locking is needed for
// outcomes; the first error is guarded by a mutex.
func (in *Ingestor) parallel(ctx context.Context, ref model.AthleteRef, raw []strava.RawActivity, outcomes []outcome) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := in.opts.Workers
	if workers > len(raw) {
		workers = len(raw)
	}

	ch := make(chan int, len(raw))
	for i := range raw {
		ch <- i
	}
	close(ch)

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				if ctx.Err() != nil {
					return
				}
				o := in.ingestOne(ctx, ref, raw[i])
				outcomes[i] = o
				if o.err != nil && !in.opts.ContinueOnError {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("ingest activity %d: %w", raw[i].ID, o.err)
						cancel()
					}
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	// Parent cancellation, not a record failure.
	return ctx.Err()
}

// ingestOne resolves the location of one activity and upserts it.
func (in *Ingestor) ingestOne(ctx context.Context, ref model.AthleteRef, r strava.RawActivity) outcome {
	a := ToActivity(ref, r)
	o := outcome{done: true}

	if !a.Location.HasCity() && a.StartLatLng != nil {
		a.Location = in.geocoder.Resolve(ctx, a.StartLatLng.Lat, a.StartLatLng.Lon)
		o.geocoded = !a.Location.IsEmpty()
		if !o.geocoded {
			in.logger.Debug("Geocoding left location empty", "activity_id", a.ID)
		}
	}
	o.activity = a

	if err := in.store.UpsertActivity(ctx, a); err != nil {
		o.err = err
	}
	return o
}

// ToActivity maps an allow-listed upstream record onto the stored shape.
// Only a finite two-element start_latlng becomes a coordinate; provider
// locality strings become the initial Location.
func ToActivity(ref model.AthleteRef, r strava.RawActivity) model.Activity {
	a := model.Activity{
		ID:                 r.ID,
		Athlete:            ref,
		Name:               r.Name,
		Distance:           r.Distance,
		MovingTime:         r.MovingTime,
		ElapsedTime:        r.ElapsedTime,
		TotalElevationGain: r.TotalElevationGain,
		Type:               r.Type,
		StartDate:          r.StartDate,
		Location:           model.NewLocation(deref(r.LocationCity), deref(r.LocationState), deref(r.LocationCountry)),
	}
	if c, ok := geo.CoordFromSlice(r.StartLatLng); ok {
		a.StartLatLng = &c
	}
	return a
}

// latestWithCoord picks the most recent activity carrying a coordinate:
// greatest start_date, then greatest id.
func latestWithCoord(activities []model.Activity) (model.Activity, bool) {
	var (
		best  model.Activity
		found bool
	)
	for _, a := range activities {
		if a.StartLatLng == nil {
			continue
		}
		if !found || a.StartDate > best.StartDate || (a.StartDate == best.StartDate && a.ID > best.ID) {
			best = a
			found = true
		}
	}
	return best, found
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

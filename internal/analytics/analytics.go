// Package analytics computes the read-side views over stored activities:
// per-athlete roll-ups, the activity farthest from a reference point, and
// top-5 leaderboards with masked last names.
//
// Every view is read-only. Per-athlete scans fan out through an errgroup;
// the first store error cancels the remaining work and fails the view.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/metrics"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

// LeaderboardSize is the length of each ranked list.
const LeaderboardSize = 5

// DefaultReference is the fixed origin for the farthest-activity view.
var DefaultReference = geo.Coord{Lat: 45.7585, Lon: 8.5569}

// Reader is the read side of the store.
type Reader interface {
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	AthletesByID(ctx context.Context, ids []int64) (map[int64]model.Athlete, error)
	ActivitiesByAthlete(ctx context.Context, athleteID int64) ([]model.Activity, error)
	ActivitiesWithCoords(ctx context.Context, athleteID int64) ([]model.Activity, error)
	TopAthletes(ctx context.Context, metric model.Metric, limit int) ([]model.AthleteMetric, error)
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Reference   *geo.Coord
	Concurrency int
}

// Engine computes analytics views.
type Engine struct {
	reader      Reader
	reference   geo.Coord
	concurrency int
	logger      *slog.Logger
}

// New creates an Engine.
func New(reader Reader, opts Options, logger *slog.Logger) *Engine {
	ref := DefaultReference
	if opts.Reference != nil {
		ref = *opts.Reference
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{reader: reader, reference: ref, concurrency: opts.Concurrency, logger: logger}
}

// Reference returns the origin used by Farthest.
func (e *Engine) Reference() geo.Coord {
	return e.reference
}

// Rollups returns one summary per athlete, in athlete id order.
func (e *Engine) Rollups(ctx context.Context) ([]AthleteRollup, error) {
	defer observe("rollups", time.Now())

	athletes, err := e.reader.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollups: %w", err)
	}

	out := make([]AthleteRollup, len(athletes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, athlete := range athletes {
		g.Go(func() error {
			activities, err := e.reader.ActivitiesByAthlete(gctx, athlete.ID)
			if err != nil {
				return err
			}
			out[i] = rollup(athlete, activities)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rollups: %w", err)
	}
	return out, nil
}

func rollup(athlete model.Athlete, activities []model.Activity) AthleteRollup {
	r := AthleteRollup{
		AthleteID:     athlete.ID,
		FirstName:     athlete.FirstName,
		LastName:      athlete.LastName,
		Profile:       athlete.Profile,
		City:          athlete.City,
		ActivityCount: len(activities),
	}

	var (
		sumMeters float64
		latest    *model.Activity
	)
	for i := range activities {
		a := &activities[i]
		if a.Distance != nil {
			sumMeters += *a.Distance
		}
		if latest == nil || moreRecent(*a, *latest) {
			latest = a
		}
	}
	r.TotalDistanceKm = geo.RoundKm(sumMeters)

	if latest != nil {
		s := summarize(*latest)
		r.LatestActivity = &s
		if c := latest.StartLatLng; c != nil {
			lat, lng := c.Lat, c.Lon
			r.LastLat, r.LastLng = &lat, &lng
		}
	}
	return r
}

// moreRecent orders by start_date, then by the greater activity id when
// timestamps collide.
func moreRecent(a, b model.Activity) bool {
	if a.StartDate != b.StartDate {
		return a.StartDate > b.StartDate
	}
	return a.ID > b.ID
}

// Farthest returns, per athlete with at least one located activity, the
// activity that started farthest from the reference point.
func (e *Engine) Farthest(ctx context.Context) ([]FarthestActivity, error) {
	defer observe("farthest", time.Now())

	athletes, err := e.reader.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("farthest: %w", err)
	}

	slots := make([]*FarthestActivity, len(athletes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, athlete := range athletes {
		g.Go(func() error {
			activities, err := e.reader.ActivitiesWithCoords(gctx, athlete.ID)
			if err != nil {
				return err
			}
			slots[i] = farthest(athlete, activities, e.reference)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("farthest: %w", err)
	}

	out := make([]FarthestActivity, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

// farthest scans in the given order; a strictly greater distance is needed
// to replace the current best, so exact ties keep the earlier activity.
func farthest(athlete model.Athlete, activities []model.Activity, ref geo.Coord) *FarthestActivity {
	var (
		best     *model.Activity
		bestDist float64
	)
	for i := range activities {
		a := &activities[i]
		if a.StartLatLng == nil || !a.StartLatLng.Valid() {
			continue
		}
		d := geo.Distance(ref, *a.StartLatLng)
		if best == nil || d > bestDist {
			best, bestDist = a, d
		}
	}
	if best == nil {
		return nil
	}

	f := &FarthestActivity{
		AthleteID:  athlete.ID,
		FirstName:  athlete.FirstName,
		LastName:   athlete.LastName,
		DistanceKm: bestDist,
		Activity:   summarize(*best),
	}
	if !best.Location.IsEmpty() {
		loc := best.Location
		f.Location = &loc
	}
	return f
}

// Leaderboards returns the three top-5 rankings.
func (e *Engine) Leaderboards(ctx context.Context) (Leaderboards, error) {
	defer observe("leaderboards", time.Now())

	metricsOrder := []model.Metric{
		model.MetricTotalDistance,
		model.MetricLongestActivity,
		model.MetricActivityCount,
	}
	rows := make([][]model.AthleteMetric, len(metricsOrder))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metricsOrder {
		g.Go(func() error {
			r, err := e.reader.TopAthletes(gctx, m, LeaderboardSize)
			if err != nil {
				return err
			}
			rows[i] = rank(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Leaderboards{}, fmt.Errorf("leaderboards: %w", err)
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, list := range rows {
		for _, r := range list {
			if _, ok := seen[r.AthleteID]; !ok {
				seen[r.AthleteID] = struct{}{}
				ids = append(ids, r.AthleteID)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	athletes, err := e.reader.AthletesByID(ctx, ids)
	if err != nil {
		return Leaderboards{}, fmt.Errorf("leaderboards: %w", err)
	}

	return Leaderboards{
		TotalDistance:   board(model.MetricTotalDistance, "km", rows[0], athletes),
		LongestActivity: board(model.MetricLongestActivity, "km", rows[1], athletes),
		ActivityCount:   board(model.MetricActivityCount, "activities", rows[2], athletes),
	}, nil
}

// rank sorts by value descending, athlete id ascending, and keeps the top
// LeaderboardSize rows.
func rank(rows []model.AthleteMetric) []model.AthleteMetric {
	out := append([]model.AthleteMetric(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].AthleteID < out[j].AthleteID
	})
	if len(out) > LeaderboardSize {
		out = out[:LeaderboardSize]
	}
	return out
}

func board(metric model.Metric, unit string, rows []model.AthleteMetric, athletes map[int64]model.Athlete) Board {
	b := Board{Metric: metric, Unit: unit, Entries: make([]LeaderboardEntry, 0, len(rows))}
	for i, r := range rows {
		value := r.Value
		if metric != model.MetricActivityCount {
			value = geo.RoundKm(value)
		}
		b.Entries = append(b.Entries, LeaderboardEntry{
			Rank:    i + 1,
			Athlete: publicAthlete(r, athletes),
			Value:   value,
		})
	}
	return b
}

// publicAthlete prefers the athletes collection and falls back to the
// snapshot stored on the activities.
func publicAthlete(r model.AthleteMetric, athletes map[int64]model.Athlete) PublicAthlete {
	p := PublicAthlete{ID: r.AthleteID, FirstName: r.FirstName, LastName: r.LastName}
	if a, ok := athletes[r.AthleteID]; ok {
		if a.FirstName != "" {
			p.FirstName = a.FirstName
		}
		if a.LastName != "" {
			p.LastName = a.LastName
		}
		p.Profile = a.Profile
	}
	p.LastName = MaskLastname(p.LastName)
	return p
}

func observe(view string, start time.Time) {
	metrics.AnalyticsDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

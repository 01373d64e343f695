// Package model defines the stored shapes shared by the ingestor, the store
// and the analytics engine. These structs are the contract between layers:
// the Strava client decodes into its own raw types, the ingestor maps them
// here, and Postgres persists exactly these fields.
package model

import (
	"time"

	"github.com/daldosso/RunPA-backend-2025/internal/geo"
)

// Location is the locality an activity started in. Each field is nil when
// unresolved.
type Location struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

// HasCity reports whether a non-empty city is set.
func (l Location) HasCity() bool {
	return l.City != nil && *l.City != ""
}

// IsEmpty reports whether no field is resolved.
func (l Location) IsEmpty() bool {
	return l.City == nil && l.State == nil && l.Country == nil
}

// NewLocation builds a Location, mapping empty strings to nil.
func NewLocation(city, state, country string) Location {
	return Location{
		City:    stringPtr(city),
		State:   stringPtr(state),
		Country: stringPtr(country),
	}
}

// AthleteRef is the denormalized athlete snapshot stored on each activity.
type AthleteRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Athlete is the athlete profile written to the athletes table.
type Athlete struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Country   string    `json:"country,omitempty"`
	Profile   string    `json:"profile,omitempty"` // image URL
	Email     string    `json:"email,omitempty"`
	LastLat   *float64  `json:"last_lat,omitempty"`
	LastLng   *float64  `json:"last_lng,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the snapshot stored on the athlete's activities.
func (a Athlete) Ref() AthleteRef {
	return AthleteRef{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName}
}

// Activity is a single Strava activity as stored in the activities table.
type Activity struct {
	ID                 int64      `json:"id"`
	Athlete            AthleteRef `json:"athlete"`
	Name               string     `json:"name"`
	Distance           *float64   `json:"distance"` // meters
	MovingTime         int        `json:"moving_time"`
	ElapsedTime        int        `json:"elapsed_time"`
	TotalElevationGain float64    `json:"total_elevation_gain"`
	Type               string     `json:"type"`
	StartDate          string     `json:"start_date"`
	StartLatLng        *geo.Coord `json:"start_latlng"`
	Location           Location   `json:"location"`
}

// Metric selects the aggregate a leaderboard ranks by.
type Metric string

const (
	MetricTotalDistance   Metric = "total_distance"
	MetricLongestActivity Metric = "longest_activity"
	MetricActivityCount   Metric = "activity_count"
)

// AthleteMetric is one grouped aggregate row: the athlete id, the snapshot
// name found on their activities, and the aggregate value (meters for the
// distance metrics, a count otherwise).
type AthleteMetric struct {
	AthleteID int64
	FirstName string
	LastName  string
	Value     float64
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

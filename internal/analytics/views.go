package analytics

import (
	"github.com/daldosso/RunPA-backend-2025/internal/geo"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

// ActivitySummary is the public projection of a stored activity.
type ActivitySummary struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name"`
	Type               string         `json:"type"`
	StartDate          string         `json:"start_date"`
	DistanceKm         *float64       `json:"distance_km"`
	MovingTime         int            `json:"moving_time"`
	ElapsedTime        int            `json:"elapsed_time"`
	TotalElevationGain float64        `json:"total_elevation_gain"`
	StartLatLng        *geo.Coord     `json:"start_latlng"`
	Location           model.Location `json:"location"`
}

// AthleteRollup is the per-athlete summary: total distance and the most
// recent activity.
type AthleteRollup struct {
	AthleteID       int64            `json:"athlete_id"`
	FirstName       string           `json:"firstname"`
	LastName        string           `json:"lastname"`
	Profile         string           `json:"profile,omitempty"`
	City            string           `json:"city,omitempty"`
	ActivityCount   int              `json:"activity_count"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	LatestActivity  *ActivitySummary `json:"latest_activity"`
	LastLat         *float64         `json:"last_lat"`
	LastLng         *float64         `json:"last_lng"`
}

// FarthestActivity is the athlete's activity that started farthest from
// the reference point. DistanceKm is not rounded.
type FarthestActivity struct {
	AthleteID  int64           `json:"athlete_id"`
	FirstName  string          `json:"firstname"`
	LastName   string          `json:"lastname"`
	DistanceKm float64         `json:"distance_km"`
	Activity   ActivitySummary `json:"activity"`
	Location   *model.Location `json:"location,omitempty"`
}

// PublicAthlete is an athlete identity safe to publish: the last name is
// masked.
type PublicAthlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Profile   string `json:"profile,omitempty"`
}

// LeaderboardEntry pairs a masked athlete with its metric value. Distances
// are kilometers rounded to two decimals; counts are whole numbers.
type LeaderboardEntry struct {
	Rank    int           `json:"rank"`
	Athlete PublicAthlete `json:"athlete"`
	Value   float64       `json:"value"`
}

// Board is one ranked list.
type Board struct {
	Metric  model.Metric       `json:"metric"`
	Unit    string             `json:"unit"`
	Entries []LeaderboardEntry `json:"entries"`
}

// Leaderboards groups the three ranked lists.
type Leaderboards struct {
	TotalDistance   Board `json:"total_distance"`
	LongestActivity Board `json:"longest_activity"`
	ActivityCount   Board `json:"activity_count"`
}

func summarize(a model.Activity) ActivitySummary {
	s := ActivitySummary{
		ID:                 a.ID,
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		StartLatLng:        a.StartLatLng,
		Location:           a.Location,
	}
	if a.Distance != nil {
		km := geo.RoundKm(*a.Distance)
		s.DistanceKm = &km
	}
	return s
}

package strava

// Athlete is the subset of the Strava athlete profile we persist.
type Athlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Profile   string `json:"profile"`
	Email     string `json:"email"`
}

// RawActivity is an activity as returned by /athlete/activities. Only the
// keys listed here are accepted from upstream; anything else is dropped at
// decode time.
type RawActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Distance           *float64  `json:"distance"`
	MovingTime         int       `json:"moving_time"`
	ElapsedTime        int       `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	Type               string    `json:"type"`
	StartDate          string    `json:"start_date"`
	StartLatLng        []float64 `json:"start_latlng"`
	LocationCity       *string   `json:"location_city"`
	LocationState      *string   `json:"location_state"`
	LocationCountry    *string   `json:"location_country"`
	Athlete            struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

// Package geo provides great-circle distance math over latitude/longitude
// pairs. Everything here is pure and safe for concurrent use.
package geo

import (
	"math"

	"github.com/goccy/go-json"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Coord is a latitude/longitude pair in decimal degrees. On the wire it is
// encoded as a two-element array [lat, lon], matching Strava's start_latlng.
type Coord struct {
	Lat float64
	Lon float64
}

// CoordFromSlice converts an upstream [lat, lon] slice into a Coord.
// Returns ok=false unless the slice holds exactly two valid values.
func CoordFromSlice(v []float64) (Coord, bool) {
	if len(v) != 2 {
		return Coord{}, false
	}
	c := Coord{Lat: v[0], Lon: v[1]}
	if !c.Valid() {
		return Coord{}, false
	}
	return c, true
}

// Valid reports whether both components are finite and within range.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Slice returns the coordinate as [lat, lon].
func (c Coord) Slice() []float64 {
	return []float64{c.Lat, c.Lon}
}

// MarshalJSON encodes the coordinate as [lat, lon].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

// Distance returns the haversine great-circle distance between a and b in
// kilometers.
func Distance(a, b Coord) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h a hair outside [0, 1] near antipodes.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm converts meters to kilometers rounded to two decimals.
func RoundKm(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

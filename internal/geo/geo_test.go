package geo

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestDistanceSamePointIsZero(t *testing.T) {
	points := []Coord{
		{0, 0},
		{45.7585, 8.5569},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
	}
	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Fatalf("Distance(%v, %v) = %f, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]Coord{
		{{45.7585, 8.5569}, {51.5074, -0.1278}},
		{{0, 0}, {0, 179.9}},
		{{-45, -170}, {45, 170}},
		{{10.5, 20.25}, {-10.5, -20.25}},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1])
		ba := Distance(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("asymmetric distance for %v: %f vs %f", p, ab, ba)
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Coord
		want float64
		tol  float64
	}{
		{"one degree of latitude", Coord{0, 0}, Coord{1, 0}, 111.19, 0.01},
		{"milan to rome", Coord{45.4642, 9.19}, Coord{41.9028, 12.4964}, 477, 5},
		{"antipodal", Coord{45.7585, 8.5569}, Coord{-45.7585, -171.4431}, 20015.09, 1},
		{"poles", Coord{90, 0}, Coord{-90, 0}, 20015.09, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("Distance = %f, want %f ± %f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceBounded(t *testing.T) {
	limit := math.Pi * EarthRadiusKm
	for lat := -90.0; lat <= 90; lat += 15 {
		for lon := -180.0; lon <= 180; lon += 30 {
			d := Distance(Coord{45.7585, 8.5569}, Coord{lat, lon})
			if d < 0 || d > limit+1e-6 || math.IsNaN(d) {
				t.Fatalf("distance to (%f, %f) out of bounds: %f", lat, lon, d)
			}
		}
	}
}

func TestRoundKm(t *testing.T) {
	tests := []struct {
		meters float64
		want   float64
	}{
		{3500, 3.5},
		{1234.4, 1.23},
		{1235.1, 1.24},
		{0, 0},
		{42195.1, 42.2},
	}
	for _, tt := range tests {
		if got := RoundKm(tt.meters); got != tt.want {
			t.Fatalf("RoundKm(%f) = %f, want %f", tt.meters, got, tt.want)
		}
	}
}

func TestCoordFromSlice(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		ok   bool
	}{
		{"valid", []float64{45.1, 8.2}, true},
		{"empty", nil, false},
		{"one value", []float64{45.1}, false},
		{"three values", []float64{1, 2, 3}, false},
		{"latitude out of range", []float64{91, 0}, false},
		{"nan", []float64{math.NaN(), 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := CoordFromSlice(tt.in)
			if ok != tt.ok {
				t.Fatalf("CoordFromSlice(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestCoordJSONIsPair(t *testing.T) {
	b, err := json.Marshal(Coord{Lat: 45.5, Lon: 8.25})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[45.5,8.25]" {
		t.Fatalf("unexpected encoding: %s", b)
	}
}

package geo

import (
	"math"
	"testing"
)

func TestDistanceSamePointIsZero(t *testing.T) {
	points := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 12.9716, Longitude: 77.5946},
		{Latitude: -33.8688, Longitude: 151.2093},
	}

	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Fatalf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Latitude: 40.7128, Longitude: -74.0060}
	b := Point{Latitude: 34.0522, Longitude: -118.2437}

	if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
		t.Fatalf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceKnownFixture(t *testing.T) {
	// New York to Los Angeles
	a := Point{Latitude: 40.7128, Longitude: -74.0060}
	b := Point{Latitude: 34.0522, Longitude: -118.2437}

	d := Distance(a, b)
	if d < 3935 || d > 3945 {
		t.Fatalf("Distance NYC-LA = %v km, want within [3935, 3945]", d)
	}
}

func TestDistanceNaNPropagates(t *testing.T) {
	a := Point{Latitude: math.NaN(), Longitude: 0}
	b := Point{Latitude: 0, Longitude: 0}

	if d := Distance(a, b); !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %v", d)
	}
}

package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {40.7128, -74.006}, {-90, 180}, {90, -180}, {51.5074, -0.1278}}
	for _, p := range points {
		if got := Haversine(p[0], p[1], p[0], p[1]); got != 0 {
			t.Errorf("Haversine(%v, %v) = %v; want 0", p, p, got)
		}
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	pairs := []struct {
		a, b [2]float64
	}{
		{a: [2]float64{40.7128, -74.006}, b: [2]float64{51.5074, -0.1278}},
		{a: [2]float64{-33.8688, 151.2093}, b: [2]float64{35.6762, 139.6503}},
		{a: [2]float64{0, 179.5}, b: [2]float64{0, -179.5}},
	}
	for _, p := range pairs {
		ab := Haversine(p.a[0], p.a[1], p.b[0], p.b[1])
		ba := Haversine(p.b[0], p.b[1], p.a[0], p.a[1])
		if ab != ba {
			t.Errorf("Haversine not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{name: "one degree of longitude at equator", lat1: 0, lon1: 0, lat2: 0, lon2: 1, want: 111.19, tolerance: 0.5},
		{name: "new york to london", lat1: 40.7128, lon1: -74.006, lat2: 51.5074, lon2: -0.1278, want: 5570, tolerance: 10},
		{name: "antimeridian crossing", lat1: 0, lon1: 179.5, lat2: 0, lon2: -179.5, want: 111.19, tolerance: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine = %.3f; want %.2f ± %.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceKM_UsesLonLatOrder(t *testing.T) {
	got := DistanceKM(orb.Point{0, 0}, orb.Point{1, 0})
	want := Haversine(0, 0, 0, 1)
	if got != want {
		t.Errorf("DistanceKM = %v; want %v", got, want)
	}
}

package points

import "github.com/paulmach/orb"

// PointOfInterest is a pre-seeded city marker. Immutable once loaded.
type PointOfInterest struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
}

func (p PointOfInterest) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// WorldBound is the hard geographic bound of the map: [[-90,-180],[90,180]].
var WorldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// ValidCoordinates reports whether lat/lon are finite and inside the world bound.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ClampPoint moves p to the nearest point inside b.
func ClampPoint(p orb.Point, b orb.Bound) orb.Point {
	return orb.Point{
		clamp(p.Lon(), b.Min.Lon(), b.Max.Lon()),
		clamp(p.Lat(), b.Min.Lat(), b.Max.Lat()),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}

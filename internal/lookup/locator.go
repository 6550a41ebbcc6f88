package lookup

import (
	"context"

	"airweather-map/internal/apiclient"
)

// Locator provides the user's position for the distance field. It is best effort.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// ErrLocationUnavailable means no position is known; the panel shows a placeholder.
var ErrLocationUnavailable = &apiclient.Error{Kind: apiclient.GeolocationUnavailable, Message: "Enable location"}

// StaticLocator reports a fixed, configured position.
type StaticLocator struct {
	lat, lon float64
	ok       bool
}

func NewStaticLocator(lat, lon float64) *StaticLocator {
	return &StaticLocator{lat: lat, lon: lon, ok: true}
}

// NoLocation is a Locator that never knows where the user is.
func NoLocation() *StaticLocator {
	return &StaticLocator{}
}

func (l *StaticLocator) Locate(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if !l.ok {
		return 0, 0, ErrLocationUnavailable
	}
	return l.lat, l.lon, nil
}

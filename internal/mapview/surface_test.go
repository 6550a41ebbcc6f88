package mapview

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airweather-map/internal/clock"
	"airweather-map/internal/points"
)

var testPoints = []points.PointOfInterest{
	{ID: 1, Name: "New York", Latitude: 40.7128, Longitude: -74.006, Country: "USA", Region: "North America"},
	{ID: 2, Name: "Paris", Latitude: 48.8566, Longitude: 2.3522, Country: "France", Region: "Europe"},
}

func newTestSurface(t *testing.T) (*Surface, *clock.Fake, *[]Selection) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	var got []Selection
	s := New(DefaultViewport(), clk, func(sel Selection) { got = append(got, sel) })
	s.LoadPoints(testPoints)
	return s, clk, &got
}

func TestNew_DefaultViewport(t *testing.T) {
	s, _, _ := newTestSurface(t)
	v := s.Viewport()

	assert.Equal(t, 20.0, v.Lat)
	assert.Equal(t, 0.0, v.Lon)
	assert.Equal(t, 2.5, v.Zoom)
	assert.Equal(t, 2.0, v.MinZoom)
	assert.Equal(t, 12.0, v.MaxZoom)
	assert.Equal(t, [2][2]float64{{-90, -180}, {90, 180}}, v.Bounds)
}

func TestZoomEnd_Clamps(t *testing.T) {
	s, _, _ := newTestSurface(t)

	assert.Equal(t, 2.0, s.ZoomEnd(0.5).Zoom)
	assert.Equal(t, 12.0, s.ZoomEnd(18).Zoom)
	assert.Equal(t, 7.0, s.ZoomEnd(7).Zoom)
}

func TestPanEnd_ClampsInsideBound(t *testing.T) {
	s, _, _ := newTestSurface(t)

	v := s.PanEnd(orb.Point{250, -120})
	assert.Equal(t, 180.0, v.Lon)
	assert.Equal(t, -90.0, v.Lat)

	v = s.PanEnd(orb.Point{10, 45})
	assert.Equal(t, 10.0, v.Lon)
	assert.Equal(t, 45.0, v.Lat)
}

func TestActivateMarker_EmitsLabelledSelection(t *testing.T) {
	s, _, got := newTestSurface(t)

	sel, err := s.ActivateMarker("paris")
	require.NoError(t, err)

	require.Len(t, *got, 1)
	assert.Equal(t, sel, (*got)[0])
	assert.Equal(t, 48.8566, sel.Lat)
	assert.Equal(t, 2.3522, sel.Lon)
	require.NotNil(t, sel.Label)
	assert.Equal(t, "Paris", *sel.Label)
	assert.Equal(t, SourceMarker, sel.Source)
	assert.Empty(t, s.ActivePulses(), "marker activation draws no pulse")
}

func TestActivateMarker_Unknown(t *testing.T) {
	s, _, got := newTestSurface(t)

	_, err := s.ActivateMarker("Atlantis")
	assert.ErrorIs(t, err, ErrUnknownMarker)
	assert.Empty(t, *got)
}

func TestOnMapActivated_PulseExpires(t *testing.T) {
	s, clk, got := newTestSurface(t)

	sel := s.OnMapActivated(12.5, 99.25)

	require.Len(t, *got, 1)
	assert.Nil(t, sel.Label)
	assert.Equal(t, SourceMap, sel.Source)

	pulses := s.ActivePulses()
	require.Len(t, pulses, 1)
	assert.Equal(t, 12.5, pulses[0].Lat)

	clk.Advance(799 * time.Millisecond)
	assert.Len(t, s.ActivePulses(), 1)
	clk.Advance(time.Millisecond)
	assert.Empty(t, s.ActivePulses())
}

func TestOnMapActivated_OneSelectionPerGesture(t *testing.T) {
	s, _, got := newTestSurface(t)

	s.OnMapActivated(1, 1)
	s.OnMapActivated(2, 2)
	_, _ = s.ActivateMarker("New York")

	assert.Len(t, *got, 3)
}

func TestActivateNearby_SetsView(t *testing.T) {
	s, _, got := newTestSurface(t)

	sel := s.ActivateNearby(48.85, 2.35, "Paris")

	v := s.Viewport()
	assert.Equal(t, 48.85, v.Lat)
	assert.Equal(t, 2.35, v.Lon)
	assert.Equal(t, float64(NearbyZoom), v.Zoom)
	assert.Equal(t, SourceNearby, sel.Source)
	assert.Equal(t, "Paris", sel.LabelOr(""))
	require.Len(t, *got, 1)
}

func TestMarkers_ReturnsCopy(t *testing.T) {
	s, _, _ := newTestSurface(t)

	m := s.Markers()
	require.Len(t, m, 2)
	m[0].Name = "changed"
	assert.Equal(t, "New York", s.Markers()[0].Name)
}

func TestInitialize_CustomConfig(t *testing.T) {
	s := New(ViewportConfig{Center: orb.Point{500, 0}, Zoom: 40, MinZoom: 3, MaxZoom: 10}, clock.NewFake(time.Unix(0, 0)), nil)
	v := s.Viewport()

	assert.Equal(t, 180.0, v.Lon)
	assert.Equal(t, 10.0, v.Zoom)
	assert.Equal(t, 3.0, v.MinZoom)

	// No subscriber: gestures still succeed.
	s.OnMapActivated(0, 0)
}

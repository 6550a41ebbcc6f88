// Package mapview models the bounded world map: its viewport, the city markers and the
// gestures that turn into Selections.
package mapview

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"airweather-map/internal/clock"
	"airweather-map/internal/geo"
	"airweather-map/internal/points"
)

var ErrUnknownMarker = errors.New("unknown marker")

// NearbyZoom is the zoom level used when jumping to a nearby city.
const NearbyZoom = 8

type ViewportConfig struct {
	Center        orb.Point
	Zoom          float64
	MinZoom       float64
	MaxZoom       float64
	Bound         orb.Bound
	PulseDuration time.Duration
}

// DefaultViewport is the world view: center [20, 0], zoom 2.5 clamped to [2, 12].
func DefaultViewport() ViewportConfig {
	return ViewportConfig{
		Center:        orb.Point{0, 20},
		Zoom:          2.5,
		MinZoom:       2,
		MaxZoom:       12,
		Bound:         geo.WorldBound,
		PulseDuration: 800 * time.Millisecond,
	}
}

type Viewport struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Zoom    float64 `json:"zoom"`
	MinZoom float64 `json:"min_zoom"`
	MaxZoom float64 `json:"max_zoom"`
	// Bounds is [[south, west], [north, east]].
	Bounds [2][2]float64 `json:"bounds"`
}

type Marker struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Region  string  `json:"region"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Pulse is the short-lived highlight drawn where the map was activated.
type Pulse struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Surface struct {
	clock clock.Clock

	mu         sync.Mutex
	cfg        ViewportConfig
	center     orb.Point
	zoom       float64
	markers    []Marker
	byName     map[string]int
	pulses     map[string]Pulse
	subscriber func(Selection)
}

// New returns a surface initialised with cfg. subscriber receives one Selection per gesture and may be nil.
func New(cfg ViewportConfig, clk clock.Clock, subscriber func(Selection)) *Surface {
	if clk == nil {
		clk = clock.Real()
	}
	s := &Surface{
		clock:      clk,
		pulses:     make(map[string]Pulse),
		byName:     make(map[string]int),
		subscriber: subscriber,
	}
	s.Initialize(cfg)
	return s
}

// Initialize resets the viewport to cfg. Zero fields fall back to DefaultViewport.
func (s *Surface) Initialize(cfg ViewportConfig) {
	def := DefaultViewport()
	if cfg.Bound.IsZero() {
		cfg.Bound = def.Bound
	}
	if cfg.MinZoom == 0 && cfg.MaxZoom == 0 {
		cfg.MinZoom, cfg.MaxZoom = def.MinZoom, def.MaxZoom
	}
	if cfg.MinZoom > cfg.MaxZoom {
		cfg.MinZoom, cfg.MaxZoom = cfg.MaxZoom, cfg.MinZoom
	}
	if cfg.PulseDuration <= 0 {
		cfg.PulseDuration = def.PulseDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.center = geo.ClampPoint(cfg.Center, cfg.Bound)
	s.zoom = geo.Clamp(cfg.Zoom, cfg.MinZoom, cfg.MaxZoom)
}

// Subscribe replaces the single Selection subscriber.
func (s *Surface) Subscribe(fn func(Selection)) {
	s.mu.Lock()
	s.subscriber = fn
	s.mu.Unlock()
}

// LoadPoints replaces the markers with one per point.
func (s *Surface) LoadPoints(pois []points.PointOfInterest) {
	markers := make([]Marker, 0, len(pois))
	byName := make(map[string]int, len(pois))
	for _, p := range pois {
		byName[strings.ToLower(p.Name)] = len(markers)
		markers = append(markers, Marker{
			ID:      p.ID,
			Name:    p.Name,
			Country: p.Country,
			Region:  p.Region,
			Lat:     p.Latitude,
			Lon:     p.Longitude,
		})
	}

	s.mu.Lock()
	s.markers = markers
	s.byName = byName
	s.mu.Unlock()
}

func (s *Surface) Markers() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Marker(nil), s.markers...)
}

// MarkerByName looks a marker up case-insensitively.
func (s *Surface) MarkerByName(name string) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Marker{}, false
	}
	return s.markers[i], true
}

// ActivateMarker emits a Selection labelled with the marker's name.
func (s *Surface) ActivateMarker(name string) (Selection, error) {
	m, ok := s.MarkerByName(name)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownMarker, name)
	}
	label := m.Name
	sel := Selection{Lat: m.Lat, Lon: m.Lon, Label: &label, Source: SourceMarker, ReceivedAt: s.clock.Now()}
	s.emit(sel)
	return sel, nil
}

// OnMapActivated emits an unlabelled Selection and drops a pulse at the point.
func (s *Surface) OnMapActivated(lat, lon float64) Selection {
	now := s.clock.Now()
	sel := Selection{Lat: lat, Lon: lon, Source: SourceMap, ReceivedAt: now}

	s.mu.Lock()
	pulse := Pulse{ID: uuid.NewString(), Lat: lat, Lon: lon, ExpiresAt: now.Add(s.cfg.PulseDuration)}
	s.pulses[pulse.ID] = pulse
	s.mu.Unlock()
	s.clock.AfterFunc(s.cfg.PulseDuration, func() { s.removePulse(pulse.ID) })

	s.emit(sel)
	return sel
}

// ActivateNearby centres the map on a nearby city at NearbyZoom and emits its Selection.
func (s *Surface) ActivateNearby(lat, lon float64, name string) Selection {
	s.SetView(orb.Point{lon, lat}, NearbyZoom)
	sel := Selection{Lat: lat, Lon: lon, Source: SourceNearby, ReceivedAt: s.clock.Now()}
	if name != "" {
		sel.Label = &name
	}
	s.emit(sel)
	return sel
}

func (s *Surface) ActivePulses() []Pulse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pulse, 0, len(s.pulses))
	for _, p := range s.pulses {
		out = append(out, p)
	}
	return out
}

func (s *Surface) removePulse(id string) {
	s.mu.Lock()
	delete(s.pulses, id)
	s.mu.Unlock()
}

func (s *Surface) emit(sel Selection) {
	s.mu.Lock()
	fn := s.subscriber
	s.mu.Unlock()
	if fn != nil {
		fn(sel)
	}
}

package mapview

import (
	"github.com/paulmach/orb"

	"airweather-map/internal/geo"
)

// PanEnd moves the center and clamps it back inside the bound.
func (s *Surface) PanEnd(center orb.Point) Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = geo.ClampPoint(center, s.cfg.Bound)
	return s.viewportLocked()
}

// ZoomEnd sets the zoom, clamped to [MinZoom, MaxZoom], and re-clamps the center.
func (s *Surface) ZoomEnd(zoom float64) Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = geo.Clamp(zoom, s.cfg.MinZoom, s.cfg.MaxZoom)
	s.center = geo.ClampPoint(s.center, s.cfg.Bound)
	return s.viewportLocked()
}

// SetView applies both center and zoom with the same clamping as a pan/zoom end.
func (s *Surface) SetView(center orb.Point, zoom float64) Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = geo.Clamp(zoom, s.cfg.MinZoom, s.cfg.MaxZoom)
	s.center = geo.ClampPoint(center, s.cfg.Bound)
	return s.viewportLocked()
}

func (s *Surface) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportLocked()
}

func (s *Surface) viewportLocked() Viewport {
	b := s.cfg.Bound
	return Viewport{
		Lat:     s.center.Lat(),
		Lon:     s.center.Lon(),
		Zoom:    s.zoom,
		MinZoom: s.cfg.MinZoom,
		MaxZoom: s.cfg.MaxZoom,
		Bounds:  [2][2]float64{{b.Min.Lat(), b.Min.Lon()}, {b.Max.Lat(), b.Max.Lon()}},
	}
}

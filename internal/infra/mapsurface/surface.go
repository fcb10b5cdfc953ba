package mapsurface

import (
	"sync"

	"profilemap/internal/domain/service"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// markerSurface keeps live markers in creation order.
type markerSurface struct {
	mu      sync.Mutex
	opts    service.MapClientOptions
	center  orb.Point
	zoom    int
	order   []string
	markers map[string]service.Marker
}

func newMarkerSurface(opts service.MapClientOptions, center orb.Point, zoom int) *markerSurface {
	return &markerSurface{
		opts:    opts,
		center:  center,
		zoom:    zoom,
		markers: make(map[string]service.Marker),
	}
}

func (s *markerSurface) AddMarker(profileID string, position orb.Point) service.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := service.Marker{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Position:  position,
	}
	s.markers[m.ID] = m
	s.order = append(s.order, m.ID)

	return m
}

func (s *markerSurface) RemoveMarker(markerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[markerID]; !ok {
		return false
	}
	delete(s.markers, markerID)

	for i, id := range s.order {
		if id == markerID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)

			break
		}
	}

	return true
}

func (s *markerSurface) Marker(markerID string) (service.Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markers[markerID]

	return m, ok
}

func (s *markerSurface) Markers() []service.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]service.Marker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.markers[id])
	}

	return out
}

func (s *markerSurface) PanTo(center orb.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.center = center
}

func (s *markerSurface) Center() orb.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.center
}

func (s *markerSurface) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.zoom
}

func (s *markerSurface) ClientOptions() service.MapClientOptions {
	return s.opts
}

func (s *markerSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = make(map[string]service.Marker)
	s.order = nil
}

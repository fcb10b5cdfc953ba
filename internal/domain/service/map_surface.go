package service

import (
	"github.com/paulmach/orb"
)

// Marker is one live point on a map surface.
type Marker struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Position  orb.Point `json:"-"`
}

// MapClientOptions is what a browser needs to draw the same surface.
type MapClientOptions struct {
	Provider string `json:"provider"`
	TileURL  string `json:"tile_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// MapSurface is the map capability the views render onto. It owns its
// markers: RemoveMarker and Close release them.
type MapSurface interface {
	// AddMarker places a marker carrying profileID at position.
	AddMarker(profileID string, position orb.Point) Marker

	// RemoveMarker releases a marker. It reports false for unknown ids.
	RemoveMarker(markerID string) bool

	// Marker looks up a live marker.
	Marker(markerID string) (Marker, bool)

	// Markers returns the live markers in creation order.
	Markers() []Marker

	// PanTo re-centers the surface without touching the zoom.
	PanTo(center orb.Point)

	Center() orb.Point
	Zoom() int

	// ClientOptions describes the provider to the client.
	ClientOptions() MapClientOptions

	// Close releases every marker.
	Close()
}

// MapProvider creates surfaces for one configured map backend.
type MapProvider interface {
	Name() string

	// NewSurface fails with domainerrors.ErrMapProviderUnavailable when the
	// provider cannot initialize, e.g. missing credentials.
	NewSurface(center orb.Point, zoom int) (MapSurface, error)
}

package usecase

import (
	"context"
	"time"

	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/service"

	"github.com/paulmach/orb/geojson"
)

// MapMarker is a live marker as reported to clients.
type MapMarker struct {
	ID          string             `json:"id"`
	ProfileID   string             `json:"profile_id"`
	Coordinates entity.Coordinates `json:"coordinates"`
	Selected    bool               `json:"selected"`
}

// MapState is everything a client needs to draw a map page.
type MapState struct {
	SessionID      string                    `json:"session_id"`
	Status         string                    `json:"status"`
	Error          string                    `json:"error,omitempty"`
	Client         *service.MapClientOptions `json:"client,omitempty"`
	Center         *entity.Coordinates       `json:"center,omitempty"`
	Zoom           int                       `json:"zoom"`
	Markers        []MapMarker               `json:"markers"`
	SelectedID     string                    `json:"selected_id,omitempty"`
	Version        uint64                    `json:"version"`
	RecentProfiles []*entity.Profile         `json:"recent_profiles"`
	Popular        []*entity.Profile         `json:"popular_locations"`
}

// Map session statuses.
const (
	MapStatusReady = "ready"
	MapStatusError = "error"
)

// MapEventType names a change pushed to map clients.
type MapEventType string

const (
	MapEventSelection      MapEventType = "selection"
	MapEventMarkersRebuilt MapEventType = "markers_rebuilt"
	MapEventPan            MapEventType = "pan"
)

// MapEvent is pushed to a session's subscribers.
type MapEvent struct {
	Type       MapEventType        `json:"type"`
	SessionID  string              `json:"session_id"`
	SelectedID string              `json:"selected_id,omitempty"`
	Center     *entity.Coordinates `json:"center,omitempty"`
	Markers    []MapMarker         `json:"markers,omitempty"`
	Version    uint64              `json:"version,omitempty"`
}

// MapUsecase manages map sessions, one per open map page. Each session owns
// its selection; marker clicks and explicit selects both go through it.
type MapUsecase interface {
	// OpenMap never fails because of the map provider: a provider error
	// leaves the session in the error state.
	OpenMap(ctx context.Context) (*MapState, error)
	MapState(ctx context.Context, sessionID string) (*MapState, error)
	GeoJSON(ctx context.Context, sessionID string) (*geojson.FeatureCollection, error)

	// Select updates the selection and pans to it when the profile exists.
	Select(ctx context.Context, sessionID, profileID string) (*MapState, error)

	// ClickMarker selects the profile the marker belongs to.
	ClickMarker(ctx context.Context, sessionID, markerID string) (*MapState, error)

	// Refresh rebuilds the markers of every session whose markers are stale.
	Refresh(ctx context.Context) error

	// Subscribe streams events for one session until cancel is called.
	Subscribe(sessionID string) (events <-chan *MapEvent, cancel func(), err error)
	CloseMap(ctx context.Context, sessionID string) error

	// SweepExpired closes sessions idle since before now minus the TTL.
	SweepExpired(now time.Time) int
	CloseAll()
}

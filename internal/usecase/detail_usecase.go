package usecase

import (
	"context"

	"profilemap/internal/domain/entity"
)

// Detail view statuses.
const (
	DetailStatusFound    = "found"
	DetailStatusNotFound = "not_found"
)

// DetailMap is the single-marker map shown next to a profile.
type DetailMap struct {
	Center entity.Coordinates `json:"center"`
	Zoom   int                `json:"zoom"`
	Marker MapMarker          `json:"marker"`
	Error  string             `json:"error,omitempty"`
}

// DetailView is the resolved detail page.
type DetailView struct {
	ViewID  string          `json:"view_id"`
	Status  string          `json:"status"`
	Profile *entity.Profile `json:"profile,omitempty"`
	Map     *DetailMap      `json:"map,omitempty"`
}

// DetailUsecase resolves detail pages.
type DetailUsecase interface {
	// Resolve fetches profileID for viewID. A newer Resolve for the same
	// viewID cancels this one, which then fails with ErrRequestSuperseded.
	// Unknown profiles resolve to the not found status, not an error.
	Resolve(ctx context.Context, viewID, profileID string) (*DetailView, error)
}

// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"profilemap/internal/domain/entity"
)

// Transient notifications shown after a successful admin action.
const (
	NotificationProfileAdded   = "Profile added successfully"
	NotificationProfileUpdated = "Profile updated successfully"
	NotificationProfileDeleted = "Profile deleted successfully"
)

// ProfileUsecase is the profile store as seen by the views and the admin panel.
type ProfileUsecase interface {
	// ListProfiles returns every profile in insertion order.
	ListProfiles(ctx context.Context) ([]*entity.Profile, error)

	// GetProfile fails with ErrProfileNotFound for unknown ids.
	GetProfile(ctx context.Context, id string) (*entity.Profile, error)

	// CreateProfile validates fields and assigns a fresh id.
	CreateProfile(ctx context.Context, fields *entity.ProfileFields) (*entity.Profile, error)

	// UpdateProfile replaces every field except the id. An unknown id is
	// reported before any validation failure.
	UpdateProfile(ctx context.Context, id string, fields *entity.ProfileFields) (*entity.Profile, error)

	// DeleteProfile removes a profile once the caller has confirmed it.
	DeleteProfile(ctx context.Context, id string, confirmed bool) error
}

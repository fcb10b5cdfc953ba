// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"profilemap/internal/domain/entity"
	"profilemap/internal/errors"
)

// Domain-specific errors for profile storage.
var (
	// ErrProfileNotFound is returned when no profile has the requested id.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned when creating a profile whose id is taken.
	ErrProfileExists = errors.New("profile already exists")
)

// ProfileRepository is the data-access contract behind the profile store.
// Implementations hand out copies; callers never share memory with the store.
type ProfileRepository interface {
	// ListProfiles returns every profile in insertion order.
	ListProfiles(ctx context.Context) ([]*entity.Profile, error)

	// FindProfileByID returns ErrProfileNotFound when id is unknown.
	FindProfileByID(ctx context.Context, id string) (*entity.Profile, error)

	// CreateProfile appends a profile. The id must already be assigned.
	// Mutations return the store version they produced.
	CreateProfile(ctx context.Context, profile *entity.Profile) (uint64, error)

	// UpdateProfile replaces the stored profile with the same id.
	UpdateProfile(ctx context.Context, profile *entity.Profile) (uint64, error)

	// DeleteProfile removes a profile by id.
	DeleteProfile(ctx context.Context, id string) (uint64, error)

	// Version changes after every successful mutation. Two equal versions
	// mean the collection is unchanged.
	Version(ctx context.Context) (uint64, error)
}

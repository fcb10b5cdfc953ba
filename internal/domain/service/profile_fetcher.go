package service

import (
	"context"

	"profilemap/internal/domain/entity"
)

// ProfileFetcher resolves a single profile for the detail view. It stands in
// for a remote backend and must honour ctx cancellation.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, id string) (*entity.Profile, error)
}

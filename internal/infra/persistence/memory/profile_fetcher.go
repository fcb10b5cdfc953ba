package memory

import (
	"context"
	"time"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/repository"
	"profilemap/internal/domain/service"
)

// profileFetcher serves single-profile lookups from the repository after an
// optional artificial delay, the way a remote backend would answer.
type profileFetcher struct {
	repo  repository.ProfileRepository
	delay time.Duration
}

// NewProfileFetcher creates the detail view's fetch collaborator.
func NewProfileFetcher(repo repository.ProfileRepository, cfg *config.Config) service.ProfileFetcher {
	var delay time.Duration
	if cfg.Detail != nil {
		delay = cfg.Detail.FetchDelay
	}

	return &profileFetcher{
		repo:  repo,
		delay: delay,
	}
}

// FetchProfile returns repository.ErrProfileNotFound for unknown ids and
// ctx.Err() when cancelled before the answer arrives.
func (f *profileFetcher) FetchProfile(ctx context.Context, id string) (*entity.Profile, error) {
	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return f.repo.FindProfileByID(ctx, id)
}

// Package memory is the in-process implementation of the persistence layer.
// Nothing survives a restart; every read hands out copies.
package memory

import (
	"context"
	"sync"

	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/repository"
	"profilemap/internal/infra/fixture"
)

// profileRepository implements repository.ProfileRepository on an ordered
// slice. index maps an id to its position in profiles.
type profileRepository struct {
	mu       sync.RWMutex
	profiles []*entity.Profile
	index    map[string]int
	version  uint64
}

// NewProfileRepository seeds a repository with copies of seed.
func NewProfileRepository(seed fixture.Seed) repository.ProfileRepository {
	repo := &profileRepository{
		profiles: make([]*entity.Profile, 0, len(seed)),
		index:    make(map[string]int, len(seed)),
		version:  1,
	}
	for _, p := range seed {
		if _, ok := repo.index[p.ID]; ok {
			continue
		}
		repo.index[p.ID] = len(repo.profiles)
		repo.profiles = append(repo.profiles, p.Clone())
	}

	return repo
}

// ListProfiles returns every profile in insertion order.
func (repo *profileRepository) ListProfiles(ctx context.Context) ([]*entity.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	out := make([]*entity.Profile, 0, len(repo.profiles))
	for _, p := range repo.profiles {
		out = append(out, p.Clone())
	}

	return out, nil
}

// FindProfileByID retrieves a profile by id.
func (repo *profileRepository) FindProfileByID(ctx context.Context, id string) (*entity.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	idx, ok := repo.index[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}

	return repo.profiles[idx].Clone(), nil
}

// CreateProfile appends a new profile.
func (repo *profileRepository) CreateProfile(ctx context.Context, profile *entity.Profile) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.index[profile.ID]; ok {
		return 0, repository.ErrProfileExists
	}

	repo.index[profile.ID] = len(repo.profiles)
	repo.profiles = append(repo.profiles, profile.Clone())
	repo.version++

	return repo.version, nil
}

// UpdateProfile replaces the stored profile with the same id.
func (repo *profileRepository) UpdateProfile(ctx context.Context, profile *entity.Profile) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	idx, ok := repo.index[profile.ID]
	if !ok {
		return 0, repository.ErrProfileNotFound
	}

	repo.profiles[idx] = profile.Clone()
	repo.version++

	return repo.version, nil
}

// DeleteProfile removes a profile by id. Positions after the removed one
// shift down by one.
func (repo *profileRepository) DeleteProfile(ctx context.Context, id string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	idx, ok := repo.index[id]
	if !ok {
		return 0, repository.ErrProfileNotFound
	}

	repo.profiles = append(repo.profiles[:idx:idx], repo.profiles[idx+1:]...)
	delete(repo.index, id)
	for i := idx; i < len(repo.profiles); i++ {
		repo.index[repo.profiles[i].ID] = i
	}
	repo.version++

	return repo.version, nil
}

// Version returns the mutation counter.
func (repo *profileRepository) Version(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return repo.version, nil
}

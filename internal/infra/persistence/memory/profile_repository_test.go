package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/repository"
	"profilemap/internal/infra/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() fixture.Seed {
	return fixture.Seed{
		{ID: "1", Name: "John Doe", Location: "New York", Description: "Software Engineer"},
		{ID: "2", Name: "Jane Smith", Location: "London", Description: "Product Designer"},
	}
}

func TestProfileRepository_ListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(seed())

	_, err := repo.CreateProfile(ctx, &entity.Profile{ID: "9", Name: "Ann Lee"})
	require.NoError(t, err)

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, []string{"1", "2", "9"}, []string{profiles[0].ID, profiles[1].ID, profiles[2].ID})
}

func TestProfileRepository_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := seed()
	repo := NewProfileRepository(s)

	s[0].Name = "mutated seed"
	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	profiles[1].Name = "mutated list"

	found, err := repo.FindProfileByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", found.Name)

	found.Name = "mutated find"
	again, err := repo.FindProfileByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", again.Name)
}

func TestProfileRepository_CreateDuplicate(t *testing.T) {
	repo := NewProfileRepository(seed())

	_, err := repo.CreateProfile(context.Background(), &entity.Profile{ID: "1"})
	assert.ErrorIs(t, err, repository.ErrProfileExists)
}

func TestProfileRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(seed())

	v0, err := repo.Version(ctx)
	require.NoError(t, err)

	v1, err := repo.UpdateProfile(ctx, &entity.Profile{ID: "2", Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Greater(t, v1, v0)

	_, err = repo.UpdateProfile(ctx, &entity.Profile{ID: "does-not-exist"})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	deleted, err := repo.DeleteProfile(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, v1+1, deleted)
	_, err = repo.DeleteProfile(ctx, "1")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	v2, err := repo.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1+1, v2, "failed delete must not bump the version")

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Jane Doe", profiles[0].Name)
}

func TestProfileRepository_DeleteKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(fixture.Seed{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	_, err := repo.DeleteProfile(ctx, "b")
	require.NoError(t, err)
	_, err = repo.CreateProfile(ctx, &entity.Profile{ID: "d"})
	require.NoError(t, err)

	profiles, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids)

	// Lookups after a delete resolve to the shifted positions.
	for _, id := range ids {
		found, err := repo.FindProfileByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, found.ID)
	}
	_, err = repo.FindProfileByID(ctx, "b")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	_, err = repo.UpdateProfile(ctx, &entity.Profile{ID: "c", Name: "Carol"})
	require.NoError(t, err)
	found, err := repo.FindProfileByID(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Carol", found.Name)
}

func TestProfileRepository_MutationsReturnTheirOwnVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(nil)

	const writers = 16
	versions := make(chan uint64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := repo.CreateProfile(ctx, &entity.Profile{ID: strconv.Itoa(i)})
			assert.NoError(t, err)
			versions <- v
		}(i)
	}
	wg.Wait()
	close(versions)

	seen := make(map[uint64]bool, writers)
	for v := range versions {
		assert.False(t, seen[v], "version %d handed out twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, writers)

	last, err := repo.Version(ctx)
	require.NoError(t, err)
	assert.True(t, seen[last])
}

func TestProfileRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewProfileRepository(seed())

	_, err := repo.ListProfiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileFetcher_HonoursCancellation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Detail.FetchDelay = time.Hour
	fetcher := NewProfileFetcher(NewProfileRepository(seed()), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fetcher.FetchProfile(ctx, "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProfileFetcher_NotFound(t *testing.T) {
	fetcher := NewProfileFetcher(NewProfileRepository(seed()), config.Defaults())

	p, err := fetcher.FetchProfile(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", p.Name)

	_, err = fetcher.FetchProfile(context.Background(), "404")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}

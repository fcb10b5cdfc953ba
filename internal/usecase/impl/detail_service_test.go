package impl

import (
	"context"
	"testing"
	"time"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/infra/mapsurface"
	"profilemap/internal/infra/persistence/memory"
	mockService "profilemap/internal/mocks/service"
	"profilemap/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestDetailService(t *testing.T, fetcher service.ProfileFetcher, cfg *config.Config) usecase.DetailUsecase {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}

	return NewDetailService(DetailServiceParams{
		Fetcher:  fetcher,
		Provider: mapsurface.NewProvider(cfg),
		Config:   cfg,
		Logger:   discardLogger(),
	})
}

func TestDetailService_ResolveFound(t *testing.T) {
	cfg := testConfig()
	svc := createTestDetailService(t, memory.NewProfileFetcher(seededRepo(t, 2), cfg), cfg)

	view, err := svc.Resolve(context.Background(), "view-1", "2")
	require.NoError(t, err)

	assert.Equal(t, usecase.DetailStatusFound, view.Status)
	assert.Equal(t, "Jane Smith", view.Profile.Name)
	require.NotNil(t, view.Map)
	assert.Equal(t, 13, view.Map.Zoom)
	assert.Equal(t, entity.Coordinates{Latitude: 51.5074, Longitude: -0.1278}, view.Map.Center)
	assert.Equal(t, "2", view.Map.Marker.ProfileID)
	assert.NotEmpty(t, view.Map.Marker.ID)
	assert.Empty(t, view.Map.Error)
}

func TestDetailService_ResolveNotFound(t *testing.T) {
	cfg := testConfig()
	svc := createTestDetailService(t, memory.NewProfileFetcher(seededRepo(t, 2), cfg), cfg)

	view, err := svc.Resolve(context.Background(), "view-1", "42")
	require.NoError(t, err)

	assert.Equal(t, usecase.DetailStatusNotFound, view.Status)
	assert.Nil(t, view.Profile)
	assert.Nil(t, view.Map)
}

func TestDetailService_FetchFailureIsNotFound(t *testing.T) {
	fetcher := mockService.NewMockProfileFetcher(t)
	fetcher.EXPECT().FetchProfile(mock.Anything, "1").Return(nil, errors.New("backend down"))
	svc := createTestDetailService(t, fetcher, nil)

	view, err := svc.Resolve(context.Background(), "view-1", "1")
	require.NoError(t, err)
	assert.Equal(t, usecase.DetailStatusNotFound, view.Status)
}

func TestDetailService_MapProviderFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Map.Provider = config.MapProviderGoogle
	svc := createTestDetailService(t, memory.NewProfileFetcher(seededRepo(t, 2), cfg), cfg)

	view, err := svc.Resolve(context.Background(), "view-1", "1")
	require.NoError(t, err)
	assert.Equal(t, usecase.DetailStatusFound, view.Status)
	assert.Equal(t, "Error loading map", view.Map.Error)
	assert.Empty(t, view.Map.Marker.ID)
}

func TestDetailService_NewerRequestSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	fetcher := mockService.NewMockProfileFetcher(t)
	fetcher.EXPECT().
		FetchProfile(mock.Anything, "1").
		RunAndReturn(func(ctx context.Context, _ string) (*entity.Profile, error) {
			close(started)
			<-ctx.Done()

			return nil, ctx.Err()
		}).
		Once()
	fetcher.EXPECT().
		FetchProfile(mock.Anything, "2").
		Return(entity.NewProfile("2", *validFields("Jane Smith")), nil).
		Once()
	svc := createTestDetailService(t, fetcher, nil)

	type outcome struct {
		view *usecase.DetailView
		err  error
	}
	older := make(chan outcome, 1)
	go func() {
		view, err := svc.Resolve(context.Background(), "view-1", "1")
		older <- outcome{view, err}
	}()
	<-started

	view, err := svc.Resolve(context.Background(), "view-1", "2")
	require.NoError(t, err)
	assert.Equal(t, "2", view.Profile.ID)

	select {
	case got := <-older:
		assert.Nil(t, got.view)
		assert.True(t, errors.Is(got.err, domainerrors.ErrRequestSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("older request was not cancelled")
	}
}

func TestDetailService_OtherViewsAreIndependent(t *testing.T) {
	cfg := testConfig()
	repo := seededRepo(t, 3)
	svc := createTestDetailService(t, memory.NewProfileFetcher(repo, cfg), cfg)

	a, err := svc.Resolve(context.Background(), "view-a", "1")
	require.NoError(t, err)
	b, err := svc.Resolve(context.Background(), "view-b", "3")
	require.NoError(t, err)

	assert.Equal(t, "1", a.Profile.ID)
	assert.Equal(t, "3", b.Profile.ID)
}

func TestDetailService_CallerCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.Detail.FetchDelay = time.Second
	svc := createTestDetailService(t, memory.NewProfileFetcher(seededRepo(t, 2), cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Resolve(ctx, "view-1", "1")
	assert.True(t, errors.Is(err, context.Canceled))
}

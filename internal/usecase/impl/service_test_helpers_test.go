package impl

import (
	"io"
	"log/slog"
	"testing"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/repository"
	"profilemap/internal/infra/fixture"
	"profilemap/internal/infra/persistence/memory"
	"profilemap/internal/infra/pubsub"
	"profilemap/internal/usecase"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return config.Defaults()
}

// seededRepo returns a memory repository holding the first n fixture
// profiles, or all of them when n < 0.
func seededRepo(t *testing.T, n int) repository.ProfileRepository {
	t.Helper()

	seed, err := fixture.Default()
	require.NoError(t, err)
	if n >= 0 && n < len(seed) {
		seed = seed[:n]
	}

	return memory.NewProfileRepository(seed)
}

func validFields(name string) *entity.ProfileFields {
	return &entity.ProfileFields{
		Name:        name,
		Location:    "Paris",
		Description: "Data scientist",
		Photo:       "https://randomuser.me/api/portraits/lego/2.jpg",
		Coordinates: entity.Coordinates{Latitude: 48.8566, Longitude: 2.3522},
	}
}

func newProfileUsecase(repo repository.ProfileRepository) usecase.ProfileUsecase {
	return NewProfileService(ProfileServiceParams{
		Repo:      repo,
		Publisher: pubsub.NewInMemoryBroker(discardLogger()),
		Config:    testConfig(),
		Logger:    discardLogger(),
	})
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

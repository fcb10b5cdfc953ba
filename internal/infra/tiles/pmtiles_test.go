package tiles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"profilemap/config"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/errors"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourcePath(t *testing.T) {
	tests := []struct {
		source      string
		wantBucket  string
		wantTileset string
	}{
		{"file:///srv/tiles/world.pmtiles", "file:///srv/tiles", "world"},
		{"/srv/tiles/world.pmtiles", "file:///srv/tiles", "world"},
		{"world.pmtiles", "file://.", "world"},
		{"https://cdn.example.com/tiles/world.pmtiles", "https://cdn.example.com/tiles", "world"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			bucket, tileset := parseSourcePath(tt.source)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantTileset, tileset)
		})
	}
}

func TestValidTile(t *testing.T) {
	assert.True(t, validTile(maptile.New(0, 0, 0)))
	assert.True(t, validTile(maptile.New(3, 7, 3)))
	assert.False(t, validTile(maptile.New(8, 0, 3)))
	assert.False(t, validTile(maptile.New(0, 1, 0)))
}

func TestNewTileSource_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	src, err := NewTileSource(Params{Config: config.Defaults(), Logger: logger})
	require.NoError(t, err)
	assert.False(t, src.Enabled())

	_, err = src.Tile(context.Background(), "world", maptile.New(0, 0, 0), "mvt")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestNewTileSource_EnabledWithoutSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.Tiles = &config.TilesConfig{Enabled: true}

	_, err := NewTileSource(Params{Config: cfg, Logger: logger})
	assert.Error(t, err)
}

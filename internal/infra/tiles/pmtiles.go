// Package tiles serves vector or raster tiles from a PMTiles archive so the
// leaflet surface can run without a third-party tile server.
package tiles

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"profilemap/config"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"

	"github.com/paulmach/orb/maptile"
	"github.com/protomaps/go-pmtiles/pmtiles"
	"go.uber.org/fx"
)

const defaultCacheSize = 64

type tileSource struct {
	tilesetName string
	server      *pmtiles.Server
	logger      *slog.Logger
}

// Params holds dependencies for the tile source
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewTileSource opens the configured archive. A disabled source answers
// every request with not found.
func NewTileSource(params Params) (service.TileSource, error) {
	cfg := params.Config.Tiles
	logger := params.Logger

	if cfg == nil || !cfg.Enabled {
		logger.Info("tile proxy disabled")

		return &tileSource{logger: logger}, nil
	}

	if cfg.Source == "" {
		return nil, errors.New("tiles source is required when enabled")
	}

	bucketPath, tilesetName := parseSourcePath(cfg.Source)

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	// pmtiles wants a *log.Logger; its output is not useful here
	server, err := pmtiles.NewServer(bucketPath, "", log.New(io.Discard, "", 0), cacheSize, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PMTiles server")
	}
	server.Start()

	logger.Info("tile proxy initialized",
		slog.String("source", cfg.Source),
		slog.String("tileset", tilesetName),
		slog.Int("cache_size", cacheSize),
	)

	return &tileSource{
		tilesetName: tilesetName,
		server:      server,
		logger:      logger,
	}, nil
}

func (s *tileSource) Enabled() bool {
	return s.server != nil
}

// Tile fetches one tile. Unknown tilesets and out of range coordinates are
// reported as not found without touching the archive.
func (s *tileSource) Tile(ctx context.Context, tileset string, tile maptile.Tile, ext string) (*service.Tile, error) {
	if !s.Enabled() || tileset != s.tilesetName {
		return nil, errors.WithStack(domainerrors.ErrNotFound.WithDetails("unknown tileset: " + tileset))
	}

	if !validTile(tile) {
		return nil, errors.WithStack(domainerrors.ErrNotFound.WithDetails(
			fmt.Sprintf("tile %d/%d/%d is out of range", tile.Z, tile.X, tile.Y)))
	}

	path := fmt.Sprintf("/%s/%d/%d/%d.%s", s.tilesetName, tile.Z, tile.X, tile.Y, strings.TrimPrefix(ext, "."))
	status, headers, data := s.server.Get(ctx, path)

	switch {
	case status == http.StatusOK || status == http.StatusNoContent:
		return &service.Tile{Status: status, Headers: headers, Data: data}, nil
	case status == http.StatusNotFound:
		return nil, errors.WithStack(domainerrors.ErrNotFound.WithDetails("tile not found: " + path))
	default:
		s.logger.Warn("tile fetch failed", slog.String("path", path), slog.Int("status", status))

		return nil, errors.Errorf("unexpected status code %d for %s", status, path)
	}
}

func validTile(tile maptile.Tile) bool {
	if tile.Z > 30 {
		return false
	}
	limit := uint32(1) << uint32(tile.Z)

	return tile.X < limit && tile.Y < limit
}

// parseSourcePath splits a source into the bucket the PMTiles server opens and
// the tileset name it serves.
//   - "file:///srv/tiles/world.pmtiles" -> ("file:///srv/tiles", "world")
//   - "/srv/tiles/world.pmtiles" -> ("file:///srv/tiles", "world")
//   - "https://cdn.example.com/tiles/world.pmtiles" -> ("https://cdn.example.com/tiles", "world")
func parseSourcePath(source string) (bucketPath, tilesetName string) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if lastSlash := strings.LastIndex(source, "/"); lastSlash > 0 {
			return source[:lastSlash], strings.TrimSuffix(source[lastSlash+1:], ".pmtiles")
		}
	}

	path := strings.TrimPrefix(source, "file://")

	return "file://" + filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ".pmtiles")
}

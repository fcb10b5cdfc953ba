package service

import (
	"context"

	"github.com/paulmach/orb/maptile"
)

// Tile is a fetched tile body plus the headers the archive wants served.
type Tile struct {
	Status  int
	Headers map[string]string
	Data    []byte
}

// TileSource serves map tiles to leaflet clients.
type TileSource interface {
	Enabled() bool
	Tile(ctx context.Context, tileset string, tile maptile.Tile, ext string) (*Tile, error)
}

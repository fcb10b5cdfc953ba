package handler

import (
	"net/http"
	"strconv"
	"strings"

	"profilemap/internal/delivery/api/response"
	"profilemap/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/fx"
)

// TileHandlerParams holds dependencies for TileHandler, injected by Fx.
type TileHandlerParams struct {
	fx.In

	Tiles service.TileSource
}

// TileHandler proxies PMTiles archives to leaflet clients
type TileHandler struct {
	tiles service.TileSource
}

// NewTileHandler is the constructor for TileHandler
func NewTileHandler(params TileHandlerParams) *TileHandler {
	return &TileHandler{tiles: params.Tiles}
}

// GetTile serves /tiles/:tileset/:z/:x/:y where y carries the extension, e.g. 3.mvt
func (h *TileHandler) GetTile(c echo.Context) error {
	if !h.tiles.Enabled() {
		return response.NotFound(c, "TILES_DISABLED", "Tile serving is disabled")
	}

	tile, ext, ok := parseTilePath(c.Param("z"), c.Param("x"), c.Param("y"))
	if !ok {
		return response.BadRequest(c, "INVALID_TILE", "Tile coordinates must look like /z/x/y.ext")
	}

	t, err := h.tiles.Tile(c.Request().Context(), c.Param("tileset"), tile, ext)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	for k, v := range t.Headers {
		c.Response().Header().Set(k, v)
	}
	if t.Status == http.StatusNoContent || len(t.Data) == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	contentType := c.Response().Header().Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	return c.Blob(http.StatusOK, contentType, t.Data)
}

func parseTilePath(zs, xs, ys string) (maptile.Tile, string, bool) {
	yPart, ext, found := strings.Cut(ys, ".")
	if !found || ext == "" {
		return maptile.Tile{}, "", false
	}

	z, err := strconv.ParseUint(zs, 10, 32)
	if err != nil {
		return maptile.Tile{}, "", false
	}
	x, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return maptile.Tile{}, "", false
	}
	y, err := strconv.ParseUint(yPart, 10, 32)
	if err != nil {
		return maptile.Tile{}, "", false
	}

	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), ext, true
}

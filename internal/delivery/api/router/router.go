// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"profilemap/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ProfileHandler *handler.ProfileHandler
	FormHandler    *handler.FormHandler
	MapHandler     *handler.MapHandler
	DetailHandler  *handler.DetailHandler
	TileHandler    *handler.TileHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	profileHandler *handler.ProfileHandler
	formHandler    *handler.FormHandler
	mapHandler     *handler.MapHandler
	detailHandler  *handler.DetailHandler
	tileHandler    *handler.TileHandler
}

// PhotoUploadPath is the route template of the form photo upload. The API
// server sizes its body limit separately.
const PhotoUploadPath = "/api/v1/forms/:id/photo"

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		profileHandler: params.ProfileHandler,
		formHandler:    params.FormHandler,
		mapHandler:     params.MapHandler,
		detailHandler:  params.DetailHandler,
		tileHandler:    params.TileHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Tile proxy for the leaflet surface
	e.GET("/tiles/:tileset/:z/:x/:y", r.tileHandler.GetTile)

	apiV1 := e.Group("/api/v1")

	// Profile store and list view
	profilesGroup := apiV1.Group("/profiles")
	{
		profilesGroup.GET("", r.profileHandler.ListProfiles)
		profilesGroup.POST("", r.profileHandler.CreateProfile)
		profilesGroup.GET("/:id", r.profileHandler.GetProfile)
		profilesGroup.PUT("/:id", r.profileHandler.UpdateProfile)
		profilesGroup.DELETE("/:id", r.profileHandler.DeleteProfile)
		profilesGroup.GET("/:id/preview", r.profileHandler.PreviewProfile)
		profilesGroup.GET("/:id/qr", r.profileHandler.ProfileQR)
	}

	// Admin forms
	formsGroup := apiV1.Group("/forms")
	{
		formsGroup.POST("", r.formHandler.OpenForm)
		formsGroup.GET("/:id", r.formHandler.GetForm)
		formsGroup.PATCH("/:id", r.formHandler.ChangeForm)
		formsGroup.DELETE("/:id", r.formHandler.CloseForm)
		formsGroup.POST("/:id/photo", r.formHandler.ReplacePhoto)
		formsGroup.POST("/:id/submit", r.formHandler.SubmitForm)
	}

	// Map sessions
	mapsGroup := apiV1.Group("/maps")
	{
		mapsGroup.POST("", r.mapHandler.OpenMap)
		mapsGroup.GET("/:id", r.mapHandler.GetMap)
		mapsGroup.DELETE("/:id", r.mapHandler.CloseMap)
		mapsGroup.GET("/:id/geojson", r.mapHandler.GeoJSON)
		mapsGroup.PUT("/:id/selection", r.mapHandler.Select)
		mapsGroup.POST("/:id/markers/:markerId/click", r.mapHandler.ClickMarker)
		mapsGroup.GET("/:id/events", r.mapHandler.Events)
	}

	// Detail views
	apiV1.GET("/details/:viewId/profiles/:id", r.detailHandler.ResolveDetail)
}

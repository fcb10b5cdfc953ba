package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"profilemap/internal/delivery/api/response"
	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/service"
	"profilemap/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ProfileHandlerParams holds dependencies for ProfileHandler, injected by Fx.
type ProfileHandlerParams struct {
	fx.In

	ProfileUC usecase.ProfileUsecase
	ListUC    usecase.ListUsecase
	QRCode    service.QRCodeService
	Logger    *slog.Logger
}

// ProfileHandler serves the profile store, the list view and share codes
type ProfileHandler struct {
	profileUC usecase.ProfileUsecase
	listUC    usecase.ListUsecase
	qrCode    service.QRCodeService
	logger    *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler
func NewProfileHandler(params ProfileHandlerParams) *ProfileHandler {
	return &ProfileHandler{
		profileUC: params.ProfileUC,
		listUC:    params.ListUC,
		qrCode:    params.QRCode,
		logger:    params.Logger,
	}
}

// CoordinatesRequest is a marker position in a profile request
type CoordinatesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProfileRequest represents the request body for creating or replacing a profile.
// Required fields are checked by the store so the admin sees its messages.
type ProfileRequest struct {
	Name        string             `json:"name"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Photo       string             `json:"photo" validate:"omitempty,url|datauri"`
	Coordinates CoordinatesRequest `json:"coordinates"`
}

func (r *ProfileRequest) fields() *entity.ProfileFields {
	return &entity.ProfileFields{
		Name:        r.Name,
		Location:    r.Location,
		Description: r.Description,
		Photo:       r.Photo,
		Coordinates: entity.Coordinates{
			Latitude:  r.Coordinates.Latitude,
			Longitude: r.Coordinates.Longitude,
		},
	}
}

// ListProfiles handles the list view, filtered by the q query parameter
func (h *ProfileHandler) ListProfiles(c echo.Context) error {
	profiles, err := h.listUC.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, profiles)
}

// GetProfile handles retrieving one profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	profile, err := h.profileUC.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, profile)
}

// PreviewProfile handles the list view's preview overlay
func (h *ProfileHandler) PreviewProfile(c echo.Context) error {
	preview, err := h.listUC.Preview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, preview)
}

// ProfileQR returns a PNG QR code linking to the profile's detail view
func (h *ProfileHandler) ProfileQR(c echo.Context) error {
	ctx := c.Request().Context()
	profile, err := h.profileUC.GetProfile(ctx, c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	png, err := h.qrCode.GenerateProfileQR(profile.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate QR code",
			slog.String("profile_id", profile.ID),
			slog.Any("error", err),
		)

		return response.InternalServerError(c, "QR_GENERATION_FAILED", "Failed to generate QR code")
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// CreateProfile handles adding a profile from the admin panel
func (h *ProfileHandler) CreateProfile(c echo.Context) error {
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	profile, err := h.profileUC.CreateProfile(c.Request().Context(), req.fields())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.SuccessWithNotification(c, http.StatusCreated, profile, usecase.NotificationProfileAdded)
}

// UpdateProfile handles replacing a profile's fields
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	profile, err := h.profileUC.UpdateProfile(c.Request().Context(), c.Param("id"), req.fields())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.SuccessWithNotification(c, http.StatusOK, profile, usecase.NotificationProfileUpdated)
}

// DeleteProfile handles removing a profile. The caller confirms with ?confirm=true.
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	confirmed := false
	if raw := c.QueryParam("confirm"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "confirm must be a boolean")
		}
		confirmed = v
	}

	id := c.Param("id")
	if err := h.profileUC.DeleteProfile(c.Request().Context(), id, confirmed); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.SuccessWithNotification(c, http.StatusOK, map[string]string{"id": id}, usecase.NotificationProfileDeleted)
}

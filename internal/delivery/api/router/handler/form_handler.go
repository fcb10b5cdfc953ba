package handler

import (
	"io"
	"log/slog"
	"net/http"

	"profilemap/config"
	"profilemap/internal/delivery/api/response"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// FormHandlerParams holds dependencies for FormHandler, injected by Fx.
type FormHandlerParams struct {
	fx.In

	FormUC usecase.FormUsecase
	Config *config.Config
	Logger *slog.Logger
}

// FormHandler serves admin form sessions
type FormHandler struct {
	formUC        usecase.FormUsecase
	maxPhotoBytes int64
	logger        *slog.Logger
}

// NewFormHandler is the constructor for FormHandler
func NewFormHandler(params FormHandlerParams) *FormHandler {
	return &FormHandler{
		formUC:        params.FormUC,
		maxPhotoBytes: params.Config.Form.MaxPhotoBytes,
		logger:        params.Logger,
	}
}

// OpenFormRequest opens a blank form, or an edit form when ProfileID is set
type OpenFormRequest struct {
	ProfileID string `json:"profile_id" query:"profile_id"`
}

// OpenForm handles opening a create or edit form
func (h *FormHandler) OpenForm(c echo.Context) error {
	var req OpenFormRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid form input")
	}
	// echo only binds query parameters for GET, DELETE and HEAD.
	if req.ProfileID == "" {
		req.ProfileID = c.QueryParam("profile_id")
	}

	form, err := h.formUC.OpenForm(c.Request().Context(), req.ProfileID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, form)
}

// GetForm returns the current draft
func (h *FormHandler) GetForm(c echo.Context) error {
	form, err := h.formUC.GetForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, form)
}

// ChangeForm applies edited fields to the draft
func (h *FormHandler) ChangeForm(c echo.Context) error {
	var patch usecase.FormPatch
	if err := c.Bind(&patch); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid form input")
	}

	form, err := h.formUC.ChangeForm(c.Request().Context(), c.Param("id"), &patch)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, form)
}

// ReplacePhoto handles a multipart photo upload into the draft
func (h *FormHandler) ReplacePhoto(c echo.Context) error {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.BadRequest(c, domainerrors.ErrInvalidPhoto.ErrorCode(), "A photo file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, domainerrors.ErrInvalidPhoto.ErrorCode(), "Failed to read the selected file")
	}
	defer file.Close()

	// One byte past the limit is enough for the size check. A non-positive
	// limit disables it, matching the form service.
	var reader io.Reader = file
	if h.maxPhotoBytes > 0 {
		reader = io.LimitReader(file, h.maxPhotoBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return response.BadRequest(c, domainerrors.ErrInvalidPhoto.ErrorCode(), "Failed to read the selected file")
	}

	form, err := h.formUC.ReplacePhoto(c.Request().Context(), c.Param("id"), data)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, form)
}

// SubmitForm saves the draft. Failures leave the form open with its error set.
func (h *FormHandler) SubmitForm(c echo.Context) error {
	result, err := h.formUC.SubmitForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	status := http.StatusOK
	if result.Notification == usecase.NotificationProfileAdded {
		status = http.StatusCreated
	}

	return response.SuccessWithNotification(c, status, result.Profile, result.Notification)
}

// CloseForm discards the form
func (h *FormHandler) CloseForm(c echo.Context) error {
	if err := h.formUC.CloseForm(c.Request().Context(), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"profilemap/internal/delivery/api/response"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DetailHandlerParams holds dependencies for DetailHandler, injected by Fx.
type DetailHandlerParams struct {
	fx.In

	DetailUC usecase.DetailUsecase
	Logger   *slog.Logger
}

// DetailHandler serves detail views
type DetailHandler struct {
	detailUC usecase.DetailUsecase
	logger   *slog.Logger
}

// NewDetailHandler is the constructor for DetailHandler
func NewDetailHandler(params DetailHandlerParams) *DetailHandler {
	return &DetailHandler{
		detailUC: params.DetailUC,
		logger:   params.Logger,
	}
}

// ResolveDetail resolves a profile for a detail view. Unknown profiles answer
// 200 with the not_found status; a newer request for the same view answers 409.
func (h *DetailHandler) ResolveDetail(c echo.Context) error {
	view, err := h.detailUC.Resolve(c.Request().Context(), c.Param("viewId"), c.Param("id"))
	if err != nil {
		// Nobody is left to answer.
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, view)
}

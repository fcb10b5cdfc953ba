package handler

import (
	"context"
	"log/slog"
	"time"

	"profilemap/internal/usecase"

	"go.uber.org/fx"
)

// SweepHandlerParams holds dependencies for the SweepHandler
type SweepHandlerParams struct {
	fx.In

	FormUC usecase.FormUsecase
	MapUC  usecase.MapUsecase
	Logger *slog.Logger
}

// SweepHandler evicts idle form and map sessions
type SweepHandler struct {
	formUC usecase.FormUsecase
	mapUC  usecase.MapUsecase
	logger *slog.Logger
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(params SweepHandlerParams) *SweepHandler {
	return &SweepHandler{
		formUC: params.FormUC,
		mapUC:  params.MapUC,
		logger: params.Logger,
	}
}

// Sweep closes sessions idle at now and reports how many went away.
func (h *SweepHandler) Sweep(ctx context.Context, now time.Time) (forms, maps int) {
	forms = h.formUC.SweepExpired(now)
	maps = h.mapUC.SweepExpired(now)

	if forms > 0 || maps > 0 {
		h.logger.InfoContext(ctx, "[Worker] Evicted idle sessions",
			slog.Int("forms", forms),
			slog.Int("maps", maps),
		)
	}

	return forms, maps
}

// CloseAll closes every map session, releasing markers and websocket streams.
func (h *SweepHandler) CloseAll(ctx context.Context) {
	h.mapUC.CloseAll()
	h.logger.InfoContext(ctx, "[Worker] Closed all map sessions")
}

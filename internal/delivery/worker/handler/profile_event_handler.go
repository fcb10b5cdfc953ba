// Package handler holds the worker's event and housekeeping handlers.
package handler

import (
	"context"
	"log/slog"

	deliverycontext "profilemap/internal/delivery/context"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// ProfileEventHandlerParams holds dependencies for the ProfileEventHandler
type ProfileEventHandlerParams struct {
	fx.In

	MapUC  usecase.MapUsecase
	Logger *slog.Logger
}

// ProfileEventHandler brings open map sessions up to date after a store change
type ProfileEventHandler struct {
	mapUC  usecase.MapUsecase
	logger *slog.Logger
}

// NewProfileEventHandler creates a new profile event handler
func NewProfileEventHandler(params ProfileEventHandlerParams) *ProfileEventHandler {
	return &ProfileEventHandler{
		mapUC:  params.MapUC,
		logger: params.Logger,
	}
}

// HandleEvent rebuilds the markers of every stale map session.
func (h *ProfileEventHandler) HandleEvent(ctx context.Context, event *service.ProfileEvent) error {
	requestID := uuid.NewString()
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.DebugContext(ctx, "[Worker] Processing profile event",
		slog.String("type", string(event.Type)),
		slog.String("profile_id", event.ProfileID),
		slog.Uint64("version", event.Version),
	)

	if err := h.mapUC.Refresh(ctx); err != nil {
		return errors.Wrapf(err, "refresh maps after %s", event.Type)
	}

	return nil
}

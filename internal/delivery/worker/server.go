package worker

import (
	"context"
	"log/slog"
	"time"

	"profilemap/config"
	"profilemap/internal/delivery"
	"profilemap/internal/delivery/worker/handler"
	"profilemap/internal/domain/lifecycle"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/util"

	"go.uber.org/fx"
)

// workerServer consumes profile events and sweeps idle sessions.
type workerServer struct {
	subscriber    service.EventSubscriber
	events        *handler.ProfileEventHandler
	sweeper       *handler.SweepHandler
	sweepInterval time.Duration
	logger        *slog.Logger

	quit chan struct{}
	done chan struct{}
}

// ServerParams holds dependencies for the worker
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	Subscriber   service.EventSubscriber
	EventHandler *handler.ProfileEventHandler
	SweepHandler *handler.SweepHandler
}

// NewServer creates the in-process worker
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := newWorkerServer(params.Subscriber, params.EventHandler, params.SweepHandler,
		params.Cfg.Worker.SweepInterval, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func newWorkerServer(
	subscriber service.EventSubscriber,
	events *handler.ProfileEventHandler,
	sweeper *handler.SweepHandler,
	sweepInterval time.Duration,
	logger *slog.Logger,
) *workerServer {
	return &workerServer{
		subscriber:    subscriber,
		events:        events,
		sweeper:       sweeper,
		sweepInterval: sweepInterval,
		logger:        logger,
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Serve runs until stop is called or the event stream closes
func (s *workerServer) Serve(ctx context.Context) error {
	defer close(s.done)

	events, cancel := s.subscriber.Subscribe()
	defer cancel()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	s.logger.Info("Starting worker", slog.String("sweep_interval", util.FormatDuration(s.sweepInterval)))

	for {
		select {
		case <-s.quit:
			return nil
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				s.logger.Info("Profile event stream closed")

				return nil
			}
			if err := s.events.HandleEvent(ctx, event); err != nil {
				s.logger.Error("[Worker] Failed to handle profile event", slog.Any("error", err))
			}
		case now := <-ticker.C:
			s.sweeper.Sweep(ctx, now)
		}
	}
}

// stop ends the loop and closes every map session
func (s *workerServer) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down worker")
	close(s.quit)

	select {
	case <-s.done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for worker")
	}

	s.sweeper.CloseAll(ctx)

	return nil
}

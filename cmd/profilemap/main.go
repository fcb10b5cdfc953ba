package main

import (
	"context"
	"log/slog"
	"os"

	"profilemap/config"
	"profilemap/internal/delivery"
	"profilemap/internal/delivery/api"
	"profilemap/internal/delivery/api/router/handler"
	"profilemap/internal/delivery/worker"
	workerhandler "profilemap/internal/delivery/worker/handler"
	"profilemap/internal/domain/service"
	"profilemap/internal/infra/fixture"
	logs "profilemap/internal/infra/log"
	"profilemap/internal/infra/mapsurface"
	"profilemap/internal/infra/persistence/memory"
	"profilemap/internal/infra/pubsub"
	"profilemap/internal/infra/qrcode"
	"profilemap/internal/infra/tiles"
	"profilemap/internal/usecase/impl"

	"go.uber.org/fx"
)

const (
	defaultQRSize    = 256
	defaultQRLevel   = "M"
	defaultQRBaseURL = "http://localhost:8080"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			fixture.New,
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			memory.NewProfileRepository,
			memory.NewProfileFetcher,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			mapsurface.NewProvider,
			newQRCodeService,
			tiles.NewTileSource,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(defaultQRSize, defaultQRLevel, defaultQRBaseURL)
	}

	baseURL := cfg.QRCode.BaseURL
	if baseURL == "" {
		baseURL = defaultQRBaseURL
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel, baseURL)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewProfileService,
			impl.NewListService,
			impl.NewFormService,
			impl.NewMapService,
			impl.NewDetailService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewProfileHandler,
			handler.NewFormHandler,
			handler.NewMapHandler,
			handler.NewDetailHandler,
			handler.NewTileHandler,
			workerhandler.NewProfileEventHandler,
			workerhandler.NewSweepHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"profilemap/config"
	"profilemap/internal/delivery"
	apimiddleware "profilemap/internal/delivery/api/middleware"
	"profilemap/internal/delivery/api/router"
	"profilemap/internal/delivery/api/validator"
	"profilemap/internal/delivery/middleware"
	"profilemap/internal/domain/lifecycle"
	"profilemap/internal/errors"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

// photoUploadOverhead is the room left for the multipart envelope around an
// uploaded photo.
const photoUploadOverhead = 64 << 10

// apiServer serves the profile, form, map and detail endpoints.
type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	RouterParams router.RouterParams
}

// NewServer builds the echo server and registers its shutdown hook.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &apiServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: newEngine(params.Cfg, params.Logger, params.RouterParams),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// newEngine assembles middleware, error handling and routes.
func newEngine(cfg *config.Config, logger *slog.Logger, routes router.RouterParams) *echo.Echo {
	engine := echo.New()
	engine.HideBanner = true
	engine.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	engine.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	engine.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	engine.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Recover first, then request id so the logger can include it.
	engine.Use(echomiddleware.Recover())
	engine.Use(middleware.NewRequestIDMiddleware(logger).Process)
	engine.Use(middleware.NewLoggerMiddleware(logger, cfg).Handle)
	engine.Use(echomiddleware.CORS())
	engine.Use(bodyLimits(cfg)...)

	engine.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	engine.Validator = validator.New()

	router.NewRouter(routes).RegisterRoutes(engine)

	return engine
}

// bodyLimits caps request bodies at http.maxRequestBodySize. Photo uploads
// are capped from form.maxPhotoBytes instead, and websocket upgrades carry no
// body.
func bodyLimits(cfg *config.Config) []echo.MiddlewareFunc {
	isPhotoUpload := func(c echo.Context) bool {
		return c.Path() == router.PhotoUploadPath
	}

	limits := []echo.MiddlewareFunc{
		echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
			Skipper: func(c echo.Context) bool {
				return isPhotoUpload(c) || websocket.IsWebSocketUpgrade(c.Request())
			},
			Limit: cfg.HTTP.MaxRequestBodySize,
		}),
	}

	if cfg.Form != nil && cfg.Form.MaxPhotoBytes > 0 {
		limits = append(limits, echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
			Skipper: func(c echo.Context) bool { return !isPhotoUpload(c) },
			Limit:   strconv.FormatInt(cfg.Form.MaxPhotoBytes+photoUploadOverhead, 10) + "B",
		}))
	}

	return limits
}

func (s *apiServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting API HTTP server", slog.String("host_port", hostPort))
	h2Server := &http2.Server{
		IdleTimeout: s.cfg.HTTP.Timeouts.IdleTimeout,
	}
	if err := s.server.StartH2CServer(hostPort, h2Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *apiServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down API HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}

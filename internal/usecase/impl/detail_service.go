package impl

import (
	"context"
	"log/slog"
	"sync"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"go.uber.org/fx"
)

type detailRequest struct {
	seq    uint64
	cancel context.CancelFunc
}

// detailService implements the DetailUsecase interface. At most one request
// per view is live; starting another cancels it.
type detailService struct {
	mu       sync.Mutex
	inflight map[string]*detailRequest
	seq      uint64

	fetcher  service.ProfileFetcher
	provider service.MapProvider
	zoom     int
	logger   *slog.Logger
}

// DetailServiceParams holds dependencies for detailService, injected by Fx
type DetailServiceParams struct {
	fx.In

	Fetcher  service.ProfileFetcher
	Provider service.MapProvider
	Config   *config.Config
	Logger   *slog.Logger
}

// NewDetailService is the constructor for detailService.
func NewDetailService(params DetailServiceParams) usecase.DetailUsecase {
	return &detailService{
		inflight: make(map[string]*detailRequest),
		fetcher:  params.Fetcher,
		provider: params.Provider,
		zoom:     params.Config.Map.DetailZoom,
		logger:   params.Logger,
	}
}

func (srv *detailService) Resolve(ctx context.Context, viewID, profileID string) (*usecase.DetailView, error) {
	reqCtx, seq := srv.begin(ctx, viewID)
	defer srv.finish(viewID, seq)

	profile, fetchErr := srv.fetcher.FetchProfile(reqCtx, profileID)

	if srv.superseded(viewID, seq) {
		srv.logger.DebugContext(ctx, "Detail request superseded",
			slog.String("view_id", viewID),
			slog.String("profile_id", profileID),
		)

		return nil, errors.WithStack(domainerrors.ErrRequestSuperseded)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	view := &usecase.DetailView{ViewID: viewID, Status: usecase.DetailStatusNotFound}
	if fetchErr != nil {
		srv.logger.DebugContext(ctx, "Detail profile unavailable",
			slog.String("profile_id", profileID),
			slog.Any("error", fetchErr),
		)

		return view, nil
	}

	view.Status = usecase.DetailStatusFound
	view.Profile = profile
	view.Map = srv.detailMap(ctx, profile)

	return view, nil
}

// begin registers a request for viewID, cancelling the one it replaces.
func (srv *detailService) begin(ctx context.Context, viewID string) (context.Context, uint64) {
	reqCtx, cancel := context.WithCancel(ctx)

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if prev, ok := srv.inflight[viewID]; ok {
		prev.cancel()
	}
	srv.seq++
	srv.inflight[viewID] = &detailRequest{seq: srv.seq, cancel: cancel}

	return reqCtx, srv.seq
}

func (srv *detailService) superseded(viewID string, seq uint64) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	current, ok := srv.inflight[viewID]

	return !ok || current.seq != seq
}

func (srv *detailService) finish(viewID string, seq uint64) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if current, ok := srv.inflight[viewID]; ok && current.seq == seq {
		current.cancel()
		delete(srv.inflight, viewID)
	}
}

// detailMap draws the single marker. A provider failure keeps the profile
// visible and reports the map error.
func (srv *detailService) detailMap(ctx context.Context, profile *entity.Profile) *usecase.DetailMap {
	m := &usecase.DetailMap{
		Center: profile.Coordinates,
		Zoom:   srv.zoom,
	}

	surface, err := srv.provider.NewSurface(profile.Coordinates.Point(), srv.zoom)
	if err != nil {
		srv.logger.WarnContext(ctx, "Detail map unavailable", slog.Any("error", err))
		m.Error = domainerrors.ErrMapProviderUnavailable.Message()

		return m
	}
	defer surface.Close()

	marker := surface.AddMarker(profile.ID, profile.Coordinates.Point())
	m.Center = entity.CoordinatesFromPoint(surface.Center())
	m.Zoom = surface.Zoom()
	m.Marker = usecase.MapMarker{
		ID:          marker.ID,
		ProfileID:   profile.ID,
		Coordinates: profile.Coordinates,
		Selected:    true,
	}

	return m
}

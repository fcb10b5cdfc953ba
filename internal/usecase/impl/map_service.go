package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/repository"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/fx"
)

const (
	mapEventBuffer = 16
	recentCount    = 3
	popularCount   = 3
)

// mapSession is one open map page. Its mutex serialises everything the
// session does, including marker rebuilds.
type mapSession struct {
	mu          sync.Mutex
	id          string
	surface     service.MapSurface
	err         error
	version     uint64
	selectedID  string
	touched     time.Time
	subscribers map[int]chan *usecase.MapEvent
	nextSubID   int
	closed      bool
}

// mapService implements the MapUsecase interface.
type mapService struct {
	mu       sync.RWMutex
	sessions map[string]*mapSession

	repo     repository.ProfileRepository
	provider service.MapProvider
	center   orb.Point
	zoom     int
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// MapServiceParams holds dependencies for mapService, injected by Fx
type MapServiceParams struct {
	fx.In

	Repo     repository.ProfileRepository
	Provider service.MapProvider
	Config   *config.Config
	Logger   *slog.Logger
}

// NewMapService is the constructor for mapService.
func NewMapService(params MapServiceParams) usecase.MapUsecase {
	return newMapService(params.Repo, params.Provider, params.Config.Map, params.Logger, time.Now)
}

func newMapService(
	repo repository.ProfileRepository,
	provider service.MapProvider,
	cfg *config.MapConfig,
	logger *slog.Logger,
	now func() time.Time,
) *mapService {
	return &mapService{
		sessions: make(map[string]*mapSession),
		repo:     repo,
		provider: provider,
		center:   orb.Point{cfg.CenterLongitude, cfg.CenterLatitude},
		zoom:     cfg.Zoom,
		ttl:      cfg.SessionTTL,
		now:      now,
		logger:   logger,
	}
}

// OpenMap creates a session. A provider failure is recorded on the session.
func (srv *mapService) OpenMap(ctx context.Context) (*usecase.MapState, error) {
	session := &mapSession{
		id:          uuid.NewString(),
		touched:     srv.now(),
		subscribers: make(map[int]chan *usecase.MapEvent),
	}

	surface, err := srv.provider.NewSurface(srv.center, srv.zoom)
	if err != nil {
		srv.logger.WarnContext(ctx, "Map provider failed to initialize",
			slog.String("provider", srv.provider.Name()),
			slog.Any("error", err),
		)
		session.err = err
	} else {
		session.surface = surface
	}

	srv.mu.Lock()
	srv.sessions[session.id] = session
	srv.mu.Unlock()

	session.mu.Lock()
	defer session.mu.Unlock()

	return srv.stateLocked(ctx, session)
}

func (srv *mapService) MapState(ctx context.Context, sessionID string) (*usecase.MapState, error) {
	session, err := srv.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := srv.touchLocked(session); err != nil {
		return nil, err
	}

	return srv.stateLocked(ctx, session)
}

// GeoJSON returns the live markers of a ready session.
func (srv *mapService) GeoJSON(ctx context.Context, sessionID string) (*geojson.FeatureCollection, error) {
	session, err := srv.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := srv.touchLocked(session); err != nil {
		return nil, err
	}
	if session.surface == nil {
		return nil, errors.WithStack(domainerrors.ErrMapProviderUnavailable)
	}
	if _, err := srv.syncLocked(ctx, session); err != nil {
		return nil, err
	}

	return featureCollection(session.surface.Markers(), session.selectedID), nil
}

// Select records the selection and pans to the profile when it exists.
func (srv *mapService) Select(ctx context.Context, sessionID, profileID string) (*usecase.MapState, error) {
	session, err := srv.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := srv.touchLocked(session); err != nil {
		return nil, err
	}
	if err := srv.selectLocked(ctx, session, profileID); err != nil {
		return nil, err
	}

	return srv.stateLocked(ctx, session)
}

// ClickMarker routes a marker click through the session's selection.
func (srv *mapService) ClickMarker(ctx context.Context, sessionID, markerID string) (*usecase.MapState, error) {
	session, err := srv.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := srv.touchLocked(session); err != nil {
		return nil, err
	}
	if session.surface == nil {
		return nil, errors.WithStack(domainerrors.ErrMarkerNotFound.WithDetails("id: " + markerID))
	}

	marker, ok := session.surface.Marker(markerID)
	if !ok {
		return nil, errors.WithStack(domainerrors.ErrMarkerNotFound.WithDetails("id: " + markerID))
	}

	if err := srv.selectLocked(ctx, session, marker.ProfileID); err != nil {
		return nil, err
	}

	return srv.stateLocked(ctx, session)
}

// Refresh brings every session's markers up to date with the store.
func (srv *mapService) Refresh(ctx context.Context) error {
	var errs []error
	for _, session := range srv.snapshot() {
		session.mu.Lock()
		if !session.closed && session.surface != nil {
			if _, err := srv.syncLocked(ctx, session); err != nil {
				errs = append(errs, errors.Wrapf(err, "failed to refresh map session %s", session.id))
			}
		}
		session.mu.Unlock()
	}

	return errors.Join(errs...)
}

// Subscribe streams the session's events. Slow subscribers lose events.
func (srv *mapService) Subscribe(sessionID string) (<-chan *usecase.MapEvent, func(), error) {
	session, err := srv.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil, nil, errors.WithStack(domainerrors.ErrMapSessionNotFound.WithDetails("id: " + sessionID))
	}

	ch := make(chan *usecase.MapEvent, mapEventBuffer)
	id := session.nextSubID
	session.nextSubID++
	session.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			session.mu.Lock()
			defer session.mu.Unlock()

			if sub, ok := session.subscribers[id]; ok {
				delete(session.subscribers, id)
				close(sub)
			}
		})
	}

	return ch, cancel, nil
}

// CloseMap releases every marker of the session.
func (srv *mapService) CloseMap(ctx context.Context, sessionID string) error {
	srv.mu.Lock()
	session, ok := srv.sessions[sessionID]
	delete(srv.sessions, sessionID)
	srv.mu.Unlock()

	if !ok {
		return errors.WithStack(domainerrors.ErrMapSessionNotFound.WithDetails("id: " + sessionID))
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.closeLocked()

	srv.logger.DebugContext(ctx, "Map session closed", slog.String("session_id", sessionID))

	return nil
}

func (srv *mapService) SweepExpired(now time.Time) int {
	if srv.ttl <= 0 {
		return 0
	}

	srv.mu.Lock()
	var expired []*mapSession
	for id, session := range srv.sessions {
		session.mu.Lock()
		if now.Sub(session.touched) > srv.ttl {
			expired = append(expired, session)
			delete(srv.sessions, id)
		}
		session.mu.Unlock()
	}
	srv.mu.Unlock()

	for _, session := range expired {
		session.mu.Lock()
		session.closeLocked()
		session.mu.Unlock()
	}

	return len(expired)
}

// CloseAll closes every session.
func (srv *mapService) CloseAll() {
	srv.mu.Lock()
	sessions := srv.sessions
	srv.sessions = make(map[string]*mapSession)
	srv.mu.Unlock()

	for _, session := range sessions {
		session.mu.Lock()
		session.closeLocked()
		session.mu.Unlock()
	}
}

func (srv *mapService) lookup(sessionID string) (*mapSession, error) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	session, ok := srv.sessions[sessionID]
	if !ok {
		return nil, errors.WithStack(domainerrors.ErrMapSessionNotFound.WithDetails("id: " + sessionID))
	}

	return session, nil
}

func (srv *mapService) snapshot() []*mapSession {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	out := make([]*mapSession, 0, len(srv.sessions))
	for _, session := range srv.sessions {
		out = append(out, session)
	}

	return out
}

func (srv *mapService) touchLocked(session *mapSession) error {
	if session.closed {
		return errors.WithStack(domainerrors.ErrMapSessionNotFound.WithDetails("id: " + session.id))
	}
	session.touched = srv.now()

	return nil
}

// syncLocked rebuilds the markers when the store changed since they were
// built. Every old marker is released before the new ones are added. It
// returns the current profiles.
func (srv *mapService) syncLocked(ctx context.Context, session *mapSession) ([]*entity.Profile, error) {
	version, err := srv.repo.Version(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read profile store version")
	}

	profiles, err := srv.repo.ListProfiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list profiles")
	}

	if session.surface == nil || version == session.version {
		return profiles, nil
	}

	for _, m := range session.surface.Markers() {
		session.surface.RemoveMarker(m.ID)
	}
	for _, p := range profiles {
		session.surface.AddMarker(p.ID, p.Coordinates.Point())
	}
	session.version = version

	srv.logger.DebugContext(ctx, "Map markers rebuilt",
		slog.String("session_id", session.id),
		slog.Int("markers", len(profiles)),
		slog.Uint64("version", version),
	)
	session.emitLocked(&usecase.MapEvent{
		Type:      usecase.MapEventMarkersRebuilt,
		SessionID: session.id,
		Markers:   markerViews(session.surface.Markers(), session.selectedID),
		Version:   version,
	})

	// Keep the view on the selection if it survived the change.
	if session.selectedID != "" {
		if p := findProfile(profiles, session.selectedID); p != nil {
			srv.panLocked(session, p.Coordinates)
		}
	}

	return profiles, nil
}

func (srv *mapService) selectLocked(ctx context.Context, session *mapSession, profileID string) error {
	profiles, err := srv.syncLocked(ctx, session)
	if err != nil {
		return err
	}

	session.selectedID = profileID
	session.emitLocked(&usecase.MapEvent{
		Type:       usecase.MapEventSelection,
		SessionID:  session.id,
		SelectedID: profileID,
	})

	if session.surface == nil || profileID == "" {
		return nil
	}
	if p := findProfile(profiles, profileID); p != nil {
		srv.panLocked(session, p.Coordinates)
	}

	return nil
}

// panLocked recenters the surface; zoom stays where it is.
func (srv *mapService) panLocked(session *mapSession, to entity.Coordinates) {
	session.surface.PanTo(to.Point())
	session.emitLocked(&usecase.MapEvent{
		Type:      usecase.MapEventPan,
		SessionID: session.id,
		Center:    &to,
	})
}

func (srv *mapService) stateLocked(ctx context.Context, session *mapSession) (*usecase.MapState, error) {
	profiles, err := srv.syncLocked(ctx, session)
	if err != nil {
		return nil, err
	}

	state := &usecase.MapState{
		SessionID:      session.id,
		Status:         usecase.MapStatusReady,
		Markers:        []usecase.MapMarker{},
		SelectedID:     session.selectedID,
		Version:        session.version,
		RecentProfiles: sliceProfiles(profiles, 0, recentCount),
		Popular:        sliceProfiles(profiles, recentCount, recentCount+popularCount),
	}

	if session.surface == nil {
		state.Status = usecase.MapStatusError
		state.Error = domainerrors.ErrMapProviderUnavailable.Message()

		return state, nil
	}

	opts := session.surface.ClientOptions()
	center := entity.CoordinatesFromPoint(session.surface.Center())
	state.Client = &opts
	state.Center = &center
	state.Zoom = session.surface.Zoom()
	state.Markers = markerViews(session.surface.Markers(), session.selectedID)

	return state, nil
}

// emitLocked never blocks; a full subscriber misses the event.
func (s *mapSession) emitLocked(event *usecase.MapEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *mapSession) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true

	if s.surface != nil {
		s.surface.Close()
	}
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func markerViews(markers []service.Marker, selectedID string) []usecase.MapMarker {
	out := make([]usecase.MapMarker, 0, len(markers))
	for _, m := range markers {
		out = append(out, usecase.MapMarker{
			ID:          m.ID,
			ProfileID:   m.ProfileID,
			Coordinates: entity.CoordinatesFromPoint(m.Position),
			Selected:    selectedID != "" && m.ProfileID == selectedID,
		})
	}

	return out
}

func findProfile(profiles []*entity.Profile, id string) *entity.Profile {
	for _, p := range profiles {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func sliceProfiles(profiles []*entity.Profile, from, to int) []*entity.Profile {
	if from >= len(profiles) {
		return []*entity.Profile{}
	}
	if to > len(profiles) {
		to = len(profiles)
	}

	return profiles[from:to]
}

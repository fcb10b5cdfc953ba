package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"profilemap/config"
	apimiddleware "profilemap/internal/delivery/api/middleware"
	"profilemap/internal/delivery/api/router/handler"
	"profilemap/internal/delivery/api/validator"
	"profilemap/internal/infra/fixture"
	"profilemap/internal/infra/mapsurface"
	"profilemap/internal/infra/persistence/memory"
	"profilemap/internal/infra/pubsub"
	"profilemap/internal/infra/qrcode"
	"profilemap/internal/infra/tiles"
	"profilemap/internal/usecase/impl"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID    string `json:"request_id"`
		Notification string `json:"notification"`
	} `json:"meta"`
}

// newTestEcho wires every handler over the embedded fixtures.
func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	return newTestEchoWithConfig(t, config.Defaults())
}

func newTestEchoWithConfig(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	seed, err := fixture.Default()
	require.NoError(t, err)
	repo := memory.NewProfileRepository(seed)
	provider := mapsurface.NewProvider(cfg)
	qr := qrcode.NewQRCodeService(256, "M", "http://localhost:8080")

	tileSource, err := tiles.NewTileSource(tiles.Params{Config: cfg, Logger: logger})
	require.NoError(t, err)

	profiles := impl.NewProfileService(impl.ProfileServiceParams{
		Repo:      repo,
		Publisher: pubsub.NewInMemoryBroker(logger),
		Config:    cfg,
		Logger:    logger,
	})
	lists := impl.NewListService(profiles, qr)
	forms := impl.NewFormService(impl.FormServiceParams{Profiles: profiles, Config: cfg, Logger: logger})
	maps := impl.NewMapService(impl.MapServiceParams{Repo: repo, Provider: provider, Config: cfg, Logger: logger})
	details := impl.NewDetailService(impl.DetailServiceParams{
		Fetcher:  memory.NewProfileFetcher(repo, cfg),
		Provider: provider,
		Config:   cfg,
		Logger:   logger,
	})
	t.Cleanup(maps.CloseAll)

	e := echo.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Validator = validator.New()

	NewRouter(RouterParams{
		ProfileHandler: handler.NewProfileHandler(handler.ProfileHandlerParams{
			ProfileUC: profiles,
			ListUC:    lists,
			QRCode:    qr,
			Logger:    logger,
		}),
		FormHandler:   handler.NewFormHandler(handler.FormHandlerParams{FormUC: forms, Config: cfg, Logger: logger}),
		MapHandler:    handler.NewMapHandler(handler.MapHandlerParams{MapUC: maps, Logger: logger}),
		DetailHandler: handler.NewDetailHandler(handler.DetailHandlerParams{DetailUC: details, Logger: logger}),
		TileHandler:   handler.NewTileHandler(handler.TileHandlerParams{Tiles: tileSource}),
	}).RegisterRoutes(e)

	return e
}

func do(t *testing.T, e *echo.Echo, method, target string, body any) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	env := &envelope{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), env))
	}

	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))

	return v
}

type profileJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Photo       string `json:"photo"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
}

func newProfileBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"location":    "Oslo",
		"description": "Backend developer",
		"photo":       "https://randomuser.me/api/portraits/lego/3.jpg",
		"coordinates": map[string]float64{"latitude": 59.91, "longitude": 10.75},
	}
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
	assert.NotEmpty(t, env.Meta.RequestID)
}

func TestProfiles_ListAndSearch(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]profileJSON](t, env.Data), 12)

	rec, env = do(t, e, http.MethodGet, "/api/v1/profiles?q=ENGINEER", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ids := []string{}
	for _, p := range decode[[]profileJSON](t, env.Data) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "11"}, ids)
}

func TestProfiles_GetUnknown(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/api/v1/profiles/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PROFILE_NOT_FOUND", env.Error.Code)
}

func TestProfiles_Preview(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/api/v1/profiles/2/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	preview := decode[struct {
		Profile    profileJSON `json:"profile"`
		DetailPath string      `json:"detail_path"`
		ShareURL   string      `json:"share_url"`
	}](t, env.Data)
	assert.Equal(t, "Jane Smith", preview.Profile.Name)
	assert.Equal(t, "/profiles/2", preview.DetailPath)
	assert.Equal(t, "http://localhost:8080/profiles/2", preview.ShareURL)
}

func TestProfiles_QR(t *testing.T) {
	e := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/1/qr", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngHeader[:8]))
}

func TestProfiles_CreateValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(body map[string]any)
		wantMessage string
		wantDetails any
	}{
		{
			name:        "blank name",
			mutate:      func(b map[string]any) { b["name"] = "   " },
			wantMessage: "Name is required",
			wantDetails: "name",
		},
		{
			name:        "missing description",
			mutate:      func(b map[string]any) { delete(b, "description") },
			wantMessage: "Description is required",
			wantDetails: "description",
		},
		{
			name:        "photo is neither URL nor data URL",
			mutate:      func(b map[string]any) { b["photo"] = "not a url" },
			wantMessage: "photo must be a URL or a data URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t)
			body := newProfileBody("Ann Lee")
			tt.mutate(body)

			rec, env := do(t, e, http.MethodPost, "/api/v1/profiles", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
			assert.Equal(t, tt.wantMessage, env.Error.Message)
			assert.Equal(t, tt.wantDetails, env.Error.Details)

			_, list := do(t, e, http.MethodGet, "/api/v1/profiles", nil)
			assert.Len(t, decode[[]profileJSON](t, list.Data), 12)
		})
	}
}

func TestProfiles_CreateUpdateDelete(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodPost, "/api/v1/profiles", newProfileBody("Ann Lee"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Profile added successfully", env.Meta.Notification)
	created := decode[profileJSON](t, env.Data)
	require.NotEmpty(t, created.ID)

	body := newProfileBody("Ann Lee-Berg")
	body["photo"] = ""
	rec, env = do(t, e, http.MethodPut, "/api/v1/profiles/"+created.ID, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", env.Meta.Notification)
	updated := decode[profileJSON](t, env.Data)
	assert.Equal(t, "Ann Lee-Berg", updated.Name)
	assert.Equal(t, config.Defaults().Form.DefaultPhoto, updated.Photo)

	rec, env = do(t, e, http.MethodDelete, "/api/v1/profiles/"+created.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", env.Error.Code)

	rec, _ = do(t, e, http.MethodDelete, "/api/v1/profiles/"+created.ID+"?confirm=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodDelete, "/api/v1/profiles/"+created.ID+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile deleted successfully", env.Meta.Notification)

	rec, _ = do(t, e, http.MethodGet, "/api/v1/profiles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfiles_UpdateUnknownReportsNotFoundFirst(t *testing.T) {
	e := newTestEcho(t)

	body := newProfileBody("")
	rec, env := do(t, e, http.MethodPut, "/api/v1/profiles/missing", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROFILE_NOT_FOUND", env.Error.Code)
}

type formJSON struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	ProfileID  string `json:"profile_id"`
	Error      string `json:"error"`
	ErrorField string `json:"error_field"`
	Draft      struct {
		Name        string `json:"name"`
		Photo       string `json:"photo"`
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"draft"`
}

func TestForms_CreateFlow(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodPost, "/api/v1/forms", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	form := decode[formJSON](t, env.Data)
	assert.Equal(t, "create", form.Mode)

	rec, env = do(t, e, http.MethodPatch, "/api/v1/forms/"+form.ID, map[string]string{
		"name":        "Ann Lee",
		"location":    "Oslo",
		"description": "Backend dev",
		"latitude":    "59.91",
		"longitude":   "abc",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	form = decode[formJSON](t, env.Data)
	assert.InDelta(t, 59.91, form.Draft.Coordinates.Latitude, 1e-9)
	assert.Zero(t, form.Draft.Coordinates.Longitude)

	rec, env = do(t, e, http.MethodPost, "/api/v1/forms/"+form.ID+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Profile added successfully", env.Meta.Notification)
	assert.Equal(t, "Ann Lee", decode[profileJSON](t, env.Data).Name)

	// Submitting closes the form.
	rec, env = do(t, e, http.MethodGet, "/api/v1/forms/"+form.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "FORM_NOT_FOUND", env.Error.Code)

	_, list := do(t, e, http.MethodGet, "/api/v1/profiles", nil)
	assert.Len(t, decode[[]profileJSON](t, list.Data), 13)
}

func TestForms_SubmitFailureKeepsFormOpen(t *testing.T) {
	e := newTestEcho(t)

	_, env := do(t, e, http.MethodPost, "/api/v1/forms?profile_id=2", nil)
	form := decode[formJSON](t, env.Data)
	require.Equal(t, "edit", form.Mode)
	assert.Equal(t, "Jane Smith", form.Draft.Name)

	do(t, e, http.MethodPatch, "/api/v1/forms/"+form.ID, map[string]string{"name": ""})

	rec, env := do(t, e, http.MethodPost, "/api/v1/forms/"+form.ID+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name is required", env.Error.Message)

	rec, env = do(t, e, http.MethodGet, "/api/v1/forms/"+form.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	form = decode[formJSON](t, env.Data)
	assert.Equal(t, "Name is required", form.Error)
	assert.Equal(t, "name", form.ErrorField)

	rec, _ = do(t, e, http.MethodDelete, "/api/v1/forms/"+form.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, env = do(t, e, http.MethodGet, "/api/v1/profiles/2", nil)
	assert.Equal(t, "Jane Smith", decode[profileJSON](t, env.Data).Name)
}

func uploadPhoto(t *testing.T, e *echo.Echo, formID string, data []byte) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/"+formID+"/photo", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	env := &envelope{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), env))

	return rec, env
}

func TestForms_PhotoUpload(t *testing.T) {
	e := newTestEcho(t)

	_, env := do(t, e, http.MethodPost, "/api/v1/forms", nil)
	form := decode[formJSON](t, env.Data)

	rec, env := uploadPhoto(t, e, form.ID, pngHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode[formJSON](t, env.Data).Draft.Photo, "data:image/png;base64,"))

	rec, env = uploadPhoto(t, e, form.ID, []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PHOTO", env.Error.Code)
}

func TestForms_PhotoUploadWithoutSizeLimit(t *testing.T) {
	cfg := config.Defaults()
	cfg.Form.MaxPhotoBytes = -1
	e := newTestEchoWithConfig(t, cfg)

	_, env := do(t, e, http.MethodPost, "/api/v1/forms", nil)
	form := decode[formJSON](t, env.Data)

	rec, env := uploadPhoto(t, e, form.ID, pngHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode[formJSON](t, env.Data).Draft.Photo, "data:image/png;base64,"))
}

type mapStateJSON struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Markers   []struct {
		ID        string `json:"id"`
		ProfileID string `json:"profile_id"`
		Selected  bool   `json:"selected"`
	} `json:"markers"`
	SelectedID string `json:"selected_id"`
	Recent     []any  `json:"recent_profiles"`
	Popular    []any  `json:"popular_locations"`
}

func TestMaps_SessionLifecycle(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodPost, "/api/v1/maps", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	state := decode[mapStateJSON](t, env.Data)
	assert.Equal(t, "ready", state.Status)
	assert.Len(t, state.Markers, 12)
	assert.Len(t, state.Recent, 3)
	assert.Len(t, state.Popular, 3)

	base := "/api/v1/maps/" + state.SessionID

	rec, env = do(t, e, http.MethodPut, base+"/selection", map[string]string{"profile_id": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", decode[mapStateJSON](t, env.Data).SelectedID)

	var markerID string
	for _, m := range state.Markers {
		if m.ProfileID == "3" {
			markerID = m.ID
		}
	}
	require.NotEmpty(t, markerID)

	rec, env = do(t, e, http.MethodPost, base+"/markers/"+markerID+"/click", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", decode[mapStateJSON](t, env.Data).SelectedID)

	req := httptest.NewRequest(http.MethodGet, base+"/geojson", nil)
	geo := httptest.NewRecorder()
	e.ServeHTTP(geo, req)
	require.Equal(t, http.StatusOK, geo.Code)
	assert.Equal(t, "application/geo+json", geo.Header().Get(echo.HeaderContentType))

	fc := decode[struct {
		Type     string `json:"type"`
		Features []any  `json:"features"`
	}](t, geo.Body.Bytes())
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 12)

	rec, _ = do(t, e, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = do(t, e, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MAP_SESSION_NOT_FOUND", env.Error.Code)
}

func TestMaps_EventsWebsocket(t *testing.T) {
	e := newTestEcho(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	rec, env := do(t, e, http.MethodPost, "/api/v1/maps", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	state := decode[mapStateJSON](t, env.Data)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/maps/" + state.SessionID + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "select", "profile_id": "4"}))

	var selection map[string]any
	for selection == nil {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == "selection" {
			selection = msg
		}
	}
	assert.Equal(t, "4", selection["selected_id"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))

	var reply map[string]any
	for reply == nil {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == "error" {
			reply = msg
		}
	}
	assert.Equal(t, "INVALID_INPUT", reply["code"])
}

func TestMaps_EventsUnknownSession(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/api/v1/maps/missing/events", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MAP_SESSION_NOT_FOUND", env.Error.Code)
}

func TestDetails_Resolve(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/api/v1/details/view-1/profiles/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[struct {
		Status  string      `json:"status"`
		Profile profileJSON `json:"profile"`
		Map     struct {
			Zoom   int `json:"zoom"`
			Marker struct {
				ProfileID string `json:"profile_id"`
			} `json:"marker"`
		} `json:"map"`
	}](t, env.Data)
	assert.Equal(t, "found", view.Status)
	assert.Equal(t, "John Doe", view.Profile.Name)
	assert.Equal(t, 13, view.Map.Zoom)
	assert.Equal(t, "1", view.Map.Marker.ProfileID)

	rec, env = do(t, e, http.MethodGet, "/api/v1/details/view-1/profiles/missing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"view_id":"view-1","status":"not_found"}`, string(env.Data))
}

func TestTiles_Disabled(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, http.MethodGet, "/tiles/world/0/0/0.mvt", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TILES_DISABLED", env.Error.Code)
}

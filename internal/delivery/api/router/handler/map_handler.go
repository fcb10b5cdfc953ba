package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"profilemap/internal/delivery/api/response"
	deliverycontext "profilemap/internal/delivery/context"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	wsReadLimit    = 1 << 16
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
	wsReplyBuffer  = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Map pages may be served from another origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MapHandlerParams holds dependencies for MapHandler, injected by Fx.
type MapHandlerParams struct {
	fx.In

	MapUC  usecase.MapUsecase
	Logger *slog.Logger
}

// MapHandler serves map sessions
type MapHandler struct {
	mapUC  usecase.MapUsecase
	logger *slog.Logger
}

// NewMapHandler is the constructor for MapHandler
func NewMapHandler(params MapHandlerParams) *MapHandler {
	return &MapHandler{
		mapUC:  params.MapUC,
		logger: params.Logger,
	}
}

// SelectRequest represents the request body for selecting a profile
type SelectRequest struct {
	ProfileID string `json:"profile_id"`
}

// OpenMap handles opening a map session. A failing map provider still
// answers 201 with the session in the error state.
func (h *MapHandler) OpenMap(c echo.Context) error {
	state, err := h.mapUC.OpenMap(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, state)
}

// GetMap returns the session state
func (h *MapHandler) GetMap(c echo.Context) error {
	state, err := h.mapUC.MapState(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, state)
}

// GeoJSON returns the session's markers as a feature collection
func (h *MapHandler) GeoJSON(c echo.Context) error {
	fc, err := h.mapUC.GeoJSON(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "marshal feature collection")
	}

	return c.Blob(http.StatusOK, "application/geo+json", body)
}

// Select handles selecting a profile, typically from a side panel
func (h *MapHandler) Select(c echo.Context) error {
	var req SelectRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid selection input")
	}

	state, err := h.mapUC.Select(c.Request().Context(), c.Param("id"), req.ProfileID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, state)
}

// ClickMarker handles a click on a marker
func (h *MapHandler) ClickMarker(c echo.Context) error {
	state, err := h.mapUC.ClickMarker(c.Request().Context(), c.Param("id"), c.Param("markerId"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, state)
}

// CloseMap releases the session and its markers
func (h *MapHandler) CloseMap(c echo.Context) error {
	if err := h.mapUC.CloseMap(c.Request().Context(), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// mapCommand is sent by websocket clients.
type mapCommand struct {
	Type      string `json:"type"` // "select" | "click"
	ProfileID string `json:"profile_id,omitempty"`
	MarkerID  string `json:"marker_id,omitempty"`
}

// mapReply is sent to one websocket client only.
type mapReply struct {
	Type    string `json:"type"` // "connected" | "error"
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type mapClient struct {
	sessionID string
	conn      *websocket.Conn
	events    <-chan *usecase.MapEvent
	replies   chan mapReply
	logger    *slog.Logger
}

// Events upgrades to a websocket that streams the session's events and
// accepts select and click commands.
func (h *MapHandler) Events(c echo.Context) error {
	sessionID := c.Param("id")
	ctx := c.Request().Context()

	state, err := h.mapUC.MapState(ctx, sessionID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	events, cancel, err := h.mapUC.Subscribe(sessionID)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already answered the client.
		return nil
	}

	client := &mapClient{
		sessionID: sessionID,
		conn:      conn,
		events:    events,
		replies:   make(chan mapReply, wsReplyBuffer),
		logger:    deliverycontext.Logger(ctx, h.logger).With(slog.String("session_id", sessionID)),
	}
	client.replies <- mapReply{Type: "connected", Data: state}

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.writer()
	}()

	// The request context is done once the handler returns.
	h.reader(context.WithoutCancel(ctx), client)
	cancel()
	<-done

	return nil
}

func (h *MapHandler) reader(ctx context.Context, c *mapClient) {
	defer c.conn.Close()

	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd mapCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.DebugContext(ctx, "Map websocket closed", slog.Any("error", err))
			}

			return
		}

		var err error
		switch cmd.Type {
		case "select":
			_, err = h.mapUC.Select(ctx, c.sessionID, cmd.ProfileID)
		case "click":
			_, err = h.mapUC.ClickMarker(ctx, c.sessionID, cmd.MarkerID)
		default:
			c.reply(mapReply{Type: "error", Code: "INVALID_INPUT", Message: "unknown command type"})

			continue
		}

		if err != nil {
			var appErr domainerrors.AppError
			if errors.As(err, &appErr) {
				c.reply(mapReply{Type: "error", Code: appErr.ErrorCode(), Message: appErr.Message()})
			} else {
				c.logger.ErrorContext(ctx, "Map command failed", slog.String("type", cmd.Type), slog.Any("error", err))
				c.reply(mapReply{Type: "error", Code: domainerrors.ErrInternalError.ErrorCode(), Message: "command failed"})
			}

			if errors.Is(err, domainerrors.ErrMapSessionNotFound) {
				return
			}
		}
	}
}

// reply drops the message when the client is not keeping up.
func (c *mapClient) reply(r mapReply) {
	select {
	case c.replies <- r:
	default:
	}
}

func (c *mapClient) writer() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var msg any
		select {
		case evt, ok := <-c.events:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "map session closed"))

				return
			}
			msg = evt
		case r := <-c.replies:
			msg = r
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

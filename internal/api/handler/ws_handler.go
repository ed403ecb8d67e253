package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/infrastructure/notify"
)

// maxInboundFrame caps what a viewer may send. The channel is server to
// client only, so anything larger is a misbehaving peer.
const maxInboundFrame = 512

// NotificationHandler upgrades viewers to a websocket and hands them to the hub.
type NotificationHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	opts     notify.SessionOptions
	log      zerolog.Logger
}

// NewNotificationHandler creates the websocket endpoint. Every session it
// accepts uses opts.
func NewNotificationHandler(hub *notify.Hub, opts notify.SessionOptions, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers are served from other origins during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		opts: opts,
		log:  log,
	}
}

// Serve blocks for the lifetime of the connection.
//
// @Summary      Change notifications
// @Description  Websocket. Frames are {"type":"USER_UPDATED"} or {"type":"CLIENT_UPDATED","seller_id":1}.
// @Tags         notifications
// @Success      101
// @Router       /ws [get]
func (h *NotificationHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	conn.SetReadLimit(maxInboundFrame)

	h.hub.Serve(c.Request().Context(), notify.NewSession(conn, h.opts))
	return nil
}

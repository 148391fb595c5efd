package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/middleware"
	"github.com/evidark-org/evidark/internal/websocket"

	ws "github.com/gorilla/websocket"
)

type WebSocketController struct {
	hub        *websocket.Hub
	dispatcher *websocket.Dispatcher
	identity   middleware.IdentityResolver
	cfg        *config.AppConfig
}

func NewWebSocketController(hub *websocket.Hub, dispatcher *websocket.Dispatcher, identity middleware.IdentityResolver, cfg *config.AppConfig) *WebSocketController {
	return &WebSocketController{
		hub:        hub,
		dispatcher: dispatcher,
		identity:   identity,
		cfg:        cfg,
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS godoc
// @Summary      WebSocket Connection
// @Description  Upgrade to WebSocket. The user is identified by the 'userId' query param or the 'X-User-ID' header.
// @Tags         websocket
// @Param        userId query string false "User ID (UUID)"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  helper.ResponseError
// @Router       /ws [get]
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	credential := r.URL.Query().Get("userId")
	if credential == "" {
		credential = r.Header.Get("X-User-ID")
	}

	authCtx, cancel := context.WithTimeout(r.Context(), time.Duration(c.cfg.WSAuthTimeoutSeconds)*time.Second)
	user, err := c.identity.Authenticate(authCtx, credential)
	cancel()
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}

	client := websocket.NewClient(c.hub, conn, user, c.cfg.WSSendBuffer)
	c.hub.Register(client)

	slog.Debug("WebSocket client connected", "userID", user.ID)

	go client.WritePump()
	go client.ReadPump(context.WithoutCancel(r.Context()), c.dispatcher)
}

package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/evidark-org/evidark/internal/model"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// FrameHandler processes one inbound text frame from client.
type FrameHandler interface {
	HandleFrame(ctx context.Context, client *Client, data []byte)
}

type Client struct {
	Hub      *Hub
	Conn     *ws.Conn
	Send     chan []byte
	UserID   uuid.UUID
	UserName string

	// guarded by Hub.mu
	rooms  map[uuid.UUID]bool
	typing map[uuid.UUID]bool
}

func NewClient(hub *Hub, conn *ws.Conn, user *model.UserDTO, sendBuffer int) *Client {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Client{
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		UserID:   user.ID,
		UserName: user.Name,
		rooms:    make(map[uuid.UUID]bool),
		typing:   make(map[uuid.UUID]bool),
	}
}

// ReadPump reads frames until the connection fails, handing each to handler
// in arrival order. The client is unregistered on return.
func (c *Client) ReadPump(ctx context.Context, handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure, ws.CloseNoStatusReceived) {
				slog.Warn("Websocket closed unexpectedly", "error", err, "userID", c.UserID)
			}
			return
		}
		if messageType != ws.TextMessage {
			c.Hub.SendToClient(c, NewErrorEvent("Only text frames are accepted", ""))
			continue
		}

		handler.HandleFrame(ctx, c, data)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				slog.Debug("Failed to write websocket message", "error", err, "userID", c.UserID)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/telemetry"

	"github.com/google/uuid"
)

type ChatAuthorizer interface {
	AuthorizeParticipant(ctx context.Context, chatID, userID uuid.UUID) error
}

// MessageHandler runs the message operations reachable from a connection.
// Implementations broadcast their own results.
type MessageHandler interface {
	SendMessage(ctx context.Context, senderID uuid.UUID, req model.SendMessageRequest, path string) (*model.MessageResponse, error)
	SetReaction(ctx context.Context, userID, messageID uuid.UUID, emoji string) error
	RemoveReaction(ctx context.Context, userID, messageID uuid.UUID) error
	MarkAsRead(ctx context.Context, userID, messageID uuid.UUID) error
}

type EventLimiter interface {
	Allow(key string) (bool, time.Duration)
}

type Dispatcher struct {
	hub          *Hub
	chats        ChatAuthorizer
	messages     MessageHandler
	limiter      EventLimiter
	metrics      *telemetry.Metrics
	eventTimeout time.Duration
}

func NewDispatcher(hub *Hub, chats ChatAuthorizer, messages MessageHandler, limiter EventLimiter, metrics *telemetry.Metrics) *Dispatcher {
	return &Dispatcher{
		hub:          hub,
		chats:        chats,
		messages:     messages,
		limiter:      limiter,
		metrics:      metrics,
		eventTimeout: 10 * time.Second,
	}
}

func (d *Dispatcher) HandleFrame(ctx context.Context, client *Client, data []byte) {
	in, err := DecodeInbound(data)
	if err != nil {
		var frameErr *FrameError
		if errors.As(err, &frameErr) {
			d.metrics.FrameRejected(frameErr.Reason)
			d.hub.SendToClient(client, NewErrorEvent(frameErr.Message, frameErr.Type))
		}
		slog.Debug("Rejected websocket frame", "error", err, "userID", client.UserID)
		return
	}

	if d.limiter != nil {
		if ok, _ := d.limiter.Allow(client.UserID.String()); !ok {
			d.metrics.FrameRejected(ReasonRateLimited)
			d.hub.SendToClient(client, NewErrorEvent(helper.MsgTooManyRequests, in.Type))
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.eventTimeout)
	defer cancel()

	switch in.Type {
	case EventJoinChat:
		d.joinChat(ctx, client, in.Chat.ChatID)
	case EventLeaveChat:
		d.hub.LeaveRoom(client, in.Chat.ChatID)
		d.hub.SendToClient(client, NewEvent(EventLeftChat, model.ChatIDPayload{ChatID: in.Chat.ChatID}).WithChat(in.Chat.ChatID))
	case EventSendMessage:
		if _, err := d.messages.SendMessage(ctx, client.UserID, in.Send, constant.MetricPathRealtime); err != nil {
			d.reject(client, in.Type, err)
		}
	case EventTypingStart:
		d.typing(client, in.Chat.ChatID, true)
	case EventTypingStop:
		d.typing(client, in.Chat.ChatID, false)
	case EventAddReaction:
		if err := d.messages.SetReaction(ctx, client.UserID, in.Reaction.MessageID, in.Reaction.Emoji); err != nil {
			d.reject(client, in.Type, err)
		}
	case EventRemoveReaction:
		if err := d.messages.RemoveReaction(ctx, client.UserID, in.Message.MessageID); err != nil {
			d.reject(client, in.Type, err)
		}
	case EventMarkAsRead:
		if err := d.messages.MarkAsRead(ctx, client.UserID, in.Message.MessageID); err != nil {
			d.reject(client, in.Type, err)
		}
	}
}

func (d *Dispatcher) joinChat(ctx context.Context, client *Client, chatID uuid.UUID) {
	if err := d.chats.AuthorizeParticipant(ctx, chatID, client.UserID); err != nil {
		d.reject(client, EventJoinChat, err)
		return
	}

	if !d.hub.JoinRoom(client, chatID) {
		return
	}

	d.hub.SendToClient(client, NewEvent(EventJoinedChat, model.ChatIDPayload{ChatID: chatID}).WithChat(chatID))
}

func (d *Dispatcher) typing(client *Client, chatID uuid.UUID, typing bool) {
	if !d.hub.SetTyping(client, chatID, typing) {
		d.reject(client, eventForTyping(typing), helper.NewForbiddenError("Join the chat before sending typing events"))
		return
	}

	eventType := EventUserStopTyping
	if typing {
		eventType = EventUserTyping
	}

	d.hub.BroadcastToRoom(chatID, NewEvent(eventType, model.TypingPayload{
		UserID:   client.UserID,
		UserName: client.UserName,
		ChatID:   chatID,
	}).WithChat(chatID).WithSender(client.UserID), client)
}

func eventForTyping(typing bool) EventType {
	if typing {
		return EventTypingStart
	}
	return EventTypingStop
}

func (d *Dispatcher) reject(client *Client, source EventType, err error) {
	appErr := helper.AsAppError(err)
	if appErr.Code >= 500 {
		slog.Error("Failed to handle websocket event", "error", err, "event", source, "userID", client.UserID)
	}
	d.hub.SendToClient(client, NewErrorEvent(appErr.Message, source))
}

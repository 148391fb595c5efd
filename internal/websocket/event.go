package websocket

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Client → server.
const (
	EventJoinChat       EventType = "join_chat"
	EventLeaveChat      EventType = "leave_chat"
	EventSendMessage    EventType = "send_message"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"
	EventAddReaction    EventType = "add_reaction"
	EventRemoveReaction EventType = "remove_reaction"
	EventMarkAsRead     EventType = "mark_as_read"
)

// Server → client.
const (
	EventJoinedChat             EventType = "joined_chat"
	EventLeftChat               EventType = "left_chat"
	EventNewMessage             EventType = "new_message"
	EventNewMessageNotification EventType = "new_message_notification"
	EventUserTyping             EventType = "user_typing"
	EventUserStopTyping         EventType = "user_stop_typing"
	EventUserStatusChange       EventType = "user_status_change"
	EventMessageReaction        EventType = "message_reaction"
	EventMessageRead            EventType = "message_read"
	EventMessageEdited          EventType = "message_edited"
	EventMessageDeleted         EventType = "message_deleted"
	EventError                  EventType = "error"
)

type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Meta    *EventMeta  `json:"meta,omitempty"`
}

type EventMeta struct {
	Timestamp int64      `json:"timestamp"`
	ChatID    *uuid.UUID `json:"chatId,omitempty"`
	SenderID  *uuid.UUID `json:"senderId,omitempty"`
	ClientID  string     `json:"clientId,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`

	// Inbound event that was refused, when known
	Event EventType `json:"event,omitempty"`
}

func NewEvent(eventType EventType, payload interface{}) Event {
	return Event{
		Type:    eventType,
		Payload: payload,
		Meta: &EventMeta{
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

func (e Event) WithChat(chatID uuid.UUID) Event {
	meta := e.meta()
	meta.ChatID = &chatID
	e.Meta = meta
	return e
}

func (e Event) WithSender(senderID uuid.UUID) Event {
	meta := e.meta()
	meta.SenderID = &senderID
	e.Meta = meta
	return e
}

func (e Event) WithClientID(clientID string) Event {
	meta := e.meta()
	meta.ClientID = clientID
	e.Meta = meta
	return e
}

func (e Event) meta() *EventMeta {
	if e.Meta == nil {
		return &EventMeta{Timestamp: time.Now().UnixMilli()}
	}
	meta := *e.Meta
	return &meta
}

func NewErrorEvent(message string, source EventType) Event {
	return NewEvent(EventError, ErrorPayload{
		Message: message,
		Event:   source,
	})
}

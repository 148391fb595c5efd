package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/evidark-org/evidark/internal/model"

	"github.com/google/uuid"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonMalformed   = "malformed"
	ReasonUnknownType = "unknown_type"
	ReasonBadPayload  = "invalid_payload"
	ReasonRateLimited = "rate_limited"
)

type FrameError struct {
	Reason  string
	Type    EventType
	Message string
}

func (e *FrameError) Error() string {
	return e.Message
}

type ChatRef struct {
	ChatID uuid.UUID `json:"chatId"`
}

type MessageRef struct {
	MessageID uuid.UUID `json:"messageId"`
}

type ReactionInput struct {
	MessageID uuid.UUID `json:"messageId"`
	Emoji     string    `json:"emoji"`
}

// Inbound is a decoded client frame. Exactly one payload field is set,
// selected by Type.
type Inbound struct {
	Type     EventType
	Chat     ChatRef
	Message  MessageRef
	Reaction ReactionInput
	Send     model.SendMessageRequest
}

type inboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeInbound parses one frame into its typed payload. Frames that are not
// an envelope with an object payload, or that miss the id their event
// requires, are refused.
func DecodeInbound(data []byte) (*Inbound, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &FrameError{Reason: ReasonMalformed, Message: "Malformed frame"}
	}
	if frame.Type == "" {
		return nil, &FrameError{Reason: ReasonMalformed, Message: "Missing event type"}
	}

	payload := bytes.TrimSpace(frame.Payload)
	if len(payload) == 0 || payload[0] != '{' {
		if !isKnownInbound(frame.Type) {
			return nil, unknownType(frame.Type)
		}
		return nil, badPayload(frame.Type, "Payload must be an object")
	}

	in := &Inbound{Type: frame.Type}
	var err error

	switch frame.Type {
	case EventJoinChat, EventLeaveChat, EventTypingStart, EventTypingStop:
		if err = json.Unmarshal(payload, &in.Chat); err == nil && in.Chat.ChatID == uuid.Nil {
			return nil, badPayload(frame.Type, "chatId is required")
		}
	case EventSendMessage:
		if err = json.Unmarshal(payload, &in.Send); err == nil && in.Send.ChatID == uuid.Nil {
			return nil, badPayload(frame.Type, "chatId is required")
		}
	case EventAddReaction:
		if err = json.Unmarshal(payload, &in.Reaction); err == nil && in.Reaction.MessageID == uuid.Nil {
			return nil, badPayload(frame.Type, "messageId is required")
		}
	case EventRemoveReaction, EventMarkAsRead:
		if err = json.Unmarshal(payload, &in.Message); err == nil && in.Message.MessageID == uuid.Nil {
			return nil, badPayload(frame.Type, "messageId is required")
		}
	default:
		return nil, unknownType(frame.Type)
	}

	if err != nil {
		return nil, badPayload(frame.Type, "Invalid payload")
	}

	return in, nil
}

func isKnownInbound(t EventType) bool {
	switch t {
	case EventJoinChat, EventLeaveChat, EventSendMessage, EventTypingStart,
		EventTypingStop, EventAddReaction, EventRemoveReaction, EventMarkAsRead:
		return true
	}
	return false
}

func unknownType(t EventType) *FrameError {
	return &FrameError{Reason: ReasonUnknownType, Type: t, Message: fmt.Sprintf("Unknown event type %q", t)}
}

func badPayload(t EventType, message string) *FrameError {
	return &FrameError{Reason: ReasonBadPayload, Type: t, Message: message}
}

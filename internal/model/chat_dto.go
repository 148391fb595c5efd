package model

import (
	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Type string `json:"type" validate:"required,chat_type"`

	// Other participants; the caller is added implicitly.
	Participants []uuid.UUID `json:"participants" validate:"required,min=1,max=256,dive,required"`

	// Required for group chats
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type ChatSettingsRequest struct {
	AllowInvites      *bool `json:"allowInvites"`
	MuteNotifications *bool `json:"muteNotifications"`
}

type UpdateChatRequest struct {
	Name        *string              `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string              `json:"description" validate:"omitempty,max=500"`
	Settings    *ChatSettingsRequest `json:"settings"`
}

type ListChatsRequest struct {
	Search string `json:"search" validate:"omitempty,max=100"`
	Page   int    `json:"page" validate:"gte=1,lte=10000"`
	Limit  int    `json:"limit" validate:"gte=1,lte=100"`
}

type ChatSettings struct {
	AllowInvites      bool `json:"allowInvites"`
	MuteNotifications bool `json:"muteNotifications"`
}

type ParticipantResponse struct {
	User       UserDTO `json:"user"`
	Role       string  `json:"role"`
	JoinedAt   string  `json:"joinedAt"`
	LastSeenAt string  `json:"lastSeenAt"`
	IsActive   bool    `json:"isActive"`
}

type ChatResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`

	Participants []ParticipantResponse `json:"participants"`

	// Preview of the last message in the chat
	LastMessage    *MessageResponse `json:"lastMessage,omitempty"`
	LastActivityAt string           `json:"lastActivityAt"`

	// Number of unread messages for the current user
	UnreadCount int64 `json:"unreadCount"`

	IsEncrypted bool         `json:"isEncrypted"`
	Settings    ChatSettings `json:"settings"`
	CreatedBy   uuid.UUID    `json:"createdBy"`
	CreatedAt   string       `json:"createdAt"`
}

type UnreadCountResponse struct {
	ChatID      uuid.UUID `json:"chatId"`
	UnreadCount int64     `json:"unreadCount"`
}

type ChatIDPayload struct {
	ChatID uuid.UUID `json:"chatId"`
}

type TypingPayload struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	ChatID   uuid.UUID `json:"chatId"`
}

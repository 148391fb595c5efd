package model

import "github.com/google/uuid"

type AttachmentDTO struct {
	Type     string `json:"type" validate:"required,attachment_type"`
	URL      string `json:"url" validate:"required,url,max=1024"`
	Filename string `json:"filename,omitempty" validate:"max=255"`
	Size     int64  `json:"size,omitempty" validate:"gte=0"`
	MimeType string `json:"mimeType,omitempty" validate:"max=100"`
}

type SendMessageRequest struct {
	ChatID  uuid.UUID `json:"chatId" validate:"required"`
	Content string    `json:"content" validate:"required,notblank"`

	// Defaults to text
	Type        string          `json:"type" validate:"omitempty,message_type"`
	ReplyToID   *uuid.UUID      `json:"replyTo,omitempty"`
	Attachments []AttachmentDTO `json:"attachments,omitempty" validate:"omitempty,max=10,dive"`

	// Opaque id of the sender's optimistic copy, echoed back in event meta.
	ClientID string `json:"clientId,omitempty" validate:"omitempty,max=64"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,notblank,max=32"`
}

type GetMessagesRequest struct {
	ChatID uuid.UUID `json:"chatId" validate:"required"`
	Page   int       `json:"page" validate:"gte=1,lte=10000"`
	Limit  int       `json:"limit" validate:"gte=1,lte=1000"`
}

type ReactionDTO struct {
	UserID    uuid.UUID `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt string    `json:"createdAt"`
}

type ReadReceiptDTO struct {
	UserID uuid.UUID `json:"userId"`
	ReadAt string    `json:"readAt"`
}

type ReplyPreviewDTO struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"senderId"`
	Content   string    `json:"content,omitempty"`
	Type      string    `json:"type"`
	IsDeleted bool      `json:"isDeleted"`
}

type MessageResponse struct {
	ID      uuid.UUID `json:"id"`
	ChatID  uuid.UUID `json:"chatId"`
	Sender  *UserDTO  `json:"sender"`
	Content string    `json:"content"`
	Type    string    `json:"type"`

	// Preview of the message this message is replying to
	ReplyTo     *ReplyPreviewDTO `json:"replyTo,omitempty"`
	Attachments []AttachmentDTO  `json:"attachments"`
	Reactions   []ReactionDTO    `json:"reactions"`
	ReadBy      []ReadReceiptDTO `json:"readBy"`

	IsEncrypted bool    `json:"isEncrypted"`
	IsEdited    bool    `json:"isEdited"`
	EditedAt    *string `json:"editedAt,omitempty"`
	IsDeleted   bool    `json:"isDeleted"`
	DeletedAt   *string `json:"deletedAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type MessageNotificationPayload struct {
	ChatID  uuid.UUID               `json:"chatId"`
	Message MessageNotificationItem `json:"message"`
}

type MessageNotificationItem struct {
	ID       uuid.UUID `json:"id"`
	Content  string    `json:"content"`
	Sender   *UserDTO  `json:"sender"`
	ChatName string    `json:"chatName"`
}

type MessageReactionPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	ChatID    uuid.UUID `json:"chatId"`
	UserID    uuid.UUID `json:"userId"`

	// Empty when the reaction was removed
	Emoji string `json:"emoji"`
}

type MessageReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	ChatID    uuid.UUID `json:"chatId"`
	UserID    uuid.UUID `json:"userId"`
	ReadAt    string    `json:"readAt"`
}

type MessageDeletedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	ChatID    uuid.UUID `json:"chatId"`
}

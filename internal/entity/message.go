package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ChatID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Content     string     `gorm:"type:text;not null"`
	Type        string     `gorm:"size:10;not null"`
	ReplyToID   *uuid.UUID `gorm:"type:uuid"`
	IsEncrypted bool       `gorm:"not null"`
	IsEdited    bool       `gorm:"not null"`
	EditedAt    *time.Time
	IsDeleted   bool `gorm:"not null"`
	DeletedAt   *time.Time
	DeletedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"index:idx_messages_chat_created,priority:2"`
	UpdatedAt   time.Time

	Sender      *User               `gorm:"foreignKey:SenderID"`
	ReplyTo     *Message            `gorm:"foreignKey:ReplyToID"`
	Attachments []MessageAttachment `gorm:"foreignKey:MessageID"`
	Reactions   []MessageReaction   `gorm:"foreignKey:MessageID"`
	ReadBy      []MessageRead       `gorm:"foreignKey:MessageID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = newID()
	}
	return nil
}

type MessageAttachment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"size:10;not null"`
	URL       string    `gorm:"size:1024;not null"`
	Filename  string    `gorm:"size:255"`
	Size      int64
	MimeType  string `gorm:"size:100"`
}

func (a *MessageAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	return nil
}

// MessageReaction is keyed by (message, user): at most one reaction per user.
type MessageReaction struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Emoji     string    `gorm:"size:32;not null"`
	CreatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}

type MessageRead struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	ReadAt    time.Time `gorm:"not null"`
}

package entity

import (
	"strings"
	"time"

	"github.com/evidark-org/evidark/internal/constant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chat struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type        string    `gorm:"size:10;not null;index"`
	Name        string    `gorm:"size:100"`
	Description string    `gorm:"size:500"`

	// PrivateKey is the unordered participant pair of a private chat and
	// NULL for groups; its unique index keeps one private chat per pair.
	PrivateKey *string `gorm:"size:80;uniqueIndex"`

	LastMessageID  *uuid.UUID `gorm:"type:uuid"`
	LastActivityAt time.Time  `gorm:"not null;index"`

	IsEncrypted       bool `gorm:"not null"`
	AllowInvites      bool `gorm:"not null"`
	MuteNotifications bool `gorm:"not null"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	IsDeleted bool      `gorm:"not null;index"`
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []ChatParticipant `gorm:"foreignKey:ChatID"`
	LastMessage  *Message          `gorm:"foreignKey:LastMessageID"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = newID()
	}
	if c.LastActivityAt.IsZero() {
		c.LastActivityAt = time.Now().UTC()
	}
	return nil
}

type ChatParticipant struct {
	ChatID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Role       string    `gorm:"size:10;not null"`
	JoinedAt   time.Time `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
	IsActive   bool      `gorm:"not null;index"`

	User *User `gorm:"foreignKey:UserID"`
}

// PrivateChatKey orders the pair so (a, b) and (b, a) collide on the unique index.
func PrivateChatKey(a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return first + ":" + second
}

func (c *Chat) ActiveParticipant(userID uuid.UUID) *ChatParticipant {
	for i := range c.Participants {
		p := &c.Participants[i]
		if p.UserID == userID && p.IsActive {
			return p
		}
	}
	return nil
}

func (c *Chat) IsPrivate() bool {
	return c.Type == constant.ChatTypePrivate
}

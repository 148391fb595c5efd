package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is owned by the wider application. The chat core only reads it and
// flips IsOnline/LastSeen.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"size:100;not null"`
	Username  string     `gorm:"size:50;uniqueIndex;not null"`
	Email     string     `gorm:"size:255;uniqueIndex;not null"`
	Avatar    string     `gorm:"size:512"`
	Role      string     `gorm:"size:20;not null"`
	IsOnline  bool       `gorm:"not null"`
	LastSeen  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	return nil
}

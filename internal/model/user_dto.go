package model

import "github.com/google/uuid"

// UserDTO is the sender/participant summary embedded in chat and message payloads.
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	Role     string    `json:"role,omitempty"`
	IsOnline bool      `json:"isOnline"`
	LastSeen *string   `json:"lastSeen,omitempty"`
}

type UserStatusPayload struct {
	UserID   uuid.UUID `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen string    `json:"lastSeen"`
}

package repository

import (
	"errors"

	"github.com/evidark-org/evidark/internal/adapter"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	Chat      *ChatRepository
	User      *UserRepository
	Message   *MessageRepository
	Presence  *PresenceRepository
	RateLimit *RateLimitRepository
}

func NewRepository(db *gorm.DB, redisAdapter *adapter.RedisAdapter) *Repository {
	return &Repository{
		Chat:      NewChatRepository(db),
		User:      NewUserRepository(db),
		Message:   NewMessageRepository(db),
		Presence:  NewPresenceRepository(redisAdapter),
		RateLimit: NewRateLimitRepository(redisAdapter),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

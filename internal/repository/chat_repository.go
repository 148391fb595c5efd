package repository

import (
	"context"
	"strings"
	"time"

	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{
		db: db,
	}
}

func preloadChat(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Participants.User").
		Preload("LastMessage").
		Preload("LastMessage.Sender")
}

// FindChatByID loads a non-deleted chat with its participants.
func (r *ChatRepository) FindChatByID(ctx context.Context, chatID uuid.UUID) (*entity.Chat, error) {
	var chat entity.Chat
	err := preloadChat(r.db.WithContext(ctx)).
		Where("id = ? AND is_deleted = ?", chatID, false).
		First(&chat).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}

func (r *ChatRepository) findByPrivateKey(ctx context.Context, key string) (*entity.Chat, error) {
	var chat entity.Chat
	err := preloadChat(r.db.WithContext(ctx)).
		Where("private_key = ?", key).
		First(&chat).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}

func (r *ChatRepository) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Joins("JOIN chats ON chats.id = chat_participants.chat_id").
		Where("chat_participants.chat_id = ? AND chat_participants.user_id = ? AND chat_participants.is_active = ? AND chats.is_deleted = ?",
			chatID, userID, true, false).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepository) GetUserRole(ctx context.Context, chatID, userID uuid.UUID) (string, error) {
	var participant entity.ChatParticipant
	err := r.db.WithContext(ctx).
		Joins("JOIN chats ON chats.id = chat_participants.chat_id").
		Where("chat_participants.chat_id = ? AND chat_participants.user_id = ? AND chat_participants.is_active = ? AND chats.is_deleted = ?",
			chatID, userID, true, false).
		First(&participant).Error
	if err != nil {
		return "", notFound(err)
	}
	return participant.Role, nil
}

// CreatePrivateChatIfAbsent inserts the private chat for the pair unless the
// unique private_key already exists. When nothing was inserted the existing
// chat is returned with created=false.
func (r *ChatRepository) CreatePrivateChatIfAbsent(ctx context.Context, creatorID, otherID uuid.UUID) (*entity.Chat, bool, error) {
	key := entity.PrivateChatKey(creatorID, otherID)
	now := time.Now().UTC()

	chat := &entity.Chat{
		Type:           constant.ChatTypePrivate,
		PrivateKey:     &key,
		CreatedBy:      creatorID,
		LastActivityAt: now,
		AllowInvites:   true,
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "private_key"}},
				DoNothing: true,
			}).
			Create(chat)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		participants := []entity.ChatParticipant{
			newParticipant(chat.ID, creatorID, constant.ParticipantRoleMember, now),
			newParticipant(chat.ID, otherID, constant.ParticipantRoleMember, now),
		}
		return tx.Omit(clause.Associations).Create(&participants).Error
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		loaded, err := r.FindChatByID(ctx, chat.ID)
		return loaded, true, err
	}

	existing, err := r.findByPrivateKey(ctx, key)
	return existing, false, err
}

func (r *ChatRepository) CreateGroupChat(ctx context.Context, creatorID uuid.UUID, name, description string, memberIDs []uuid.UUID) (*entity.Chat, error) {
	now := time.Now().UTC()
	chat := &entity.Chat{
		Type:           constant.ChatTypeGroup,
		Name:           name,
		Description:    description,
		CreatedBy:      creatorID,
		LastActivityAt: now,
		AllowInvites:   true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(chat).Error; err != nil {
			return err
		}

		participants := make([]entity.ChatParticipant, 0, len(memberIDs)+1)
		participants = append(participants, newParticipant(chat.ID, creatorID, constant.ParticipantRoleAdmin, now))
		for _, id := range memberIDs {
			if id == creatorID {
				continue
			}
			participants = append(participants, newParticipant(chat.ID, id, constant.ParticipantRoleMember, now))
		}
		return tx.Omit(clause.Associations).Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	return r.FindChatByID(ctx, chat.ID)
}

func newParticipant(chatID, userID uuid.UUID, role string, at time.Time) entity.ChatParticipant {
	return entity.ChatParticipant{
		ChatID:     chatID,
		UserID:     userID,
		Role:       role,
		JoinedAt:   at,
		LastSeenAt: at,
		IsActive:   true,
	}
}

// ListChatsForUser returns one page of the user's active chats, most recently
// active first, optionally filtered by chat or participant name.
func (r *ChatRepository) ListChatsForUser(ctx context.Context, userID uuid.UUID, search string, page, limit int) ([]entity.Chat, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entity.Chat{}).
			Where("chats.is_deleted = ?", false).
			Where("EXISTS (SELECT 1 FROM chat_participants cp WHERE cp.chat_id = chats.id AND cp.user_id = ? AND cp.is_active = ?)", userID, true)

		if search = strings.TrimSpace(search); search != "" {
			pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
			q = q.Where(
				`(LOWER(chats.name) LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM chat_participants sp JOIN users su ON su.id = sp.user_id WHERE sp.chat_id = chats.id AND (LOWER(su.name) LIKE ? ESCAPE '\' OR LOWER(su.username) LIKE ? ESCAPE '\')))`,
				pattern, pattern, pattern,
			)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chats []entity.Chat
	err := preloadChat(base()).
		Order("chats.last_activity_at DESC").
		Order("chats.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, 0, err
	}

	return chats, total, nil
}

func (r *ChatRepository) UpdateChat(ctx context.Context, chatID uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&entity.Chat{}).
		Where("id = ? AND is_deleted = ?", chatID, false).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChatRepository) SoftDeleteChat(ctx context.Context, chatID uuid.UUID) error {
	now := time.Now().UTC()
	return r.UpdateChat(ctx, chatID, map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
	})
}

func (r *ChatRepository) setParticipantActive(ctx context.Context, chatID, userID uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Updates(map[string]interface{}{
			"is_active":    active,
			"last_seen_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChatRepository) DeactivateParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	return r.setParticipantActive(ctx, chatID, userID, false)
}

func (r *ChatRepository) ReactivateParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	return r.setParticipantActive(ctx, chatID, userID, true)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern using ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

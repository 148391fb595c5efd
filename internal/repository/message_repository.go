package repository

import (
	"context"
	"time"

	"github.com/evidark-org/evidark/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

func preloadMessage(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sender").
		Preload("Attachments").
		Preload("Reactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("ReadBy", func(db *gorm.DB) *gorm.DB {
			return db.Order("read_at ASC")
		}).
		Preload("ReplyTo")
}

// AppendMessage stores msg and its attachments and advances the chat's
// last message pointer in the same transaction. The chat update only moves
// last_activity_at forward.
func (r *MessageRepository) AppendMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}

		if len(msg.Attachments) > 0 {
			for i := range msg.Attachments {
				msg.Attachments[i].MessageID = msg.ID
			}
			if err := tx.Create(&msg.Attachments).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&entity.Chat{}).
			Where("id = ? AND last_activity_at <= ?", msg.ChatID, msg.CreatedAt).
			Updates(map[string]interface{}{
				"last_message_id":  msg.ID,
				"last_activity_at": msg.CreatedAt,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.ChatParticipant{}).
			Where("chat_id = ? AND user_id = ?", msg.ChatID, msg.SenderID).
			Update("last_seen_at", msg.CreatedAt).Error
	})
}

func (r *MessageRepository) FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var msg entity.Message
	if err := preloadMessage(r.db.WithContext(ctx)).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

// GetPaginatedMessages returns page of the newest non-deleted messages, in
// chronological order within the page.
func (r *MessageRepository) GetPaginatedMessages(ctx context.Context, chatID uuid.UUID, page, limit int) ([]entity.Message, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entity.Message{}).
			Where("chat_id = ? AND is_deleted = ?", chatID, false)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []entity.Message
	err := preloadMessage(base()).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, total, nil
}

func unreadQuery(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Model(&entity.Message{}).
		Where("messages.is_deleted = ? AND messages.sender_id <> ?", false, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = messages.id AND mr.user_id = ?)", userID)
}

func (r *MessageRepository) GetUnreadCount(ctx context.Context, chatID, userID uuid.UUID) (int64, error) {
	var count int64
	err := unreadQuery(r.db.WithContext(ctx), userID).
		Where("messages.chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) GetUnreadCounts(ctx context.Context, chatIDs []uuid.UUID, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ChatID uuid.UUID
		Total  int64
	}
	err := unreadQuery(r.db.WithContext(ctx), userID).
		Select("messages.chat_id AS chat_id, COUNT(*) AS total").
		Where("messages.chat_id IN ?", chatIDs).
		Group("messages.chat_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ChatID] = row.Total
	}
	return out, nil
}

// SetReaction upserts the user's single reaction on a message.
func (r *MessageRepository) SetReaction(ctx context.Context, reaction *entity.MessageReaction) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
		}).
		Create(reaction).Error
}

func (r *MessageRepository) RemoveReaction(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&entity.MessageReaction{})
	return res.RowsAffected > 0, res.Error
}

// AddReadReceipt records a receipt once; repeated calls report false.
func (r *MessageRepository) AddReadReceipt(ctx context.Context, read *entity.MessageRead) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(read)
	return res.RowsAffected > 0, res.Error
}

func (r *MessageRepository) UpdateMessageContent(ctx context.Context, id uuid.UUID, content string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepository) SoftDeleteMessage(ctx context.Context, id, deletedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

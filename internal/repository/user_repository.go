package repository

import (
	"context"
	"time"

	"github.com/evidark-org/evidark/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) CountByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// SetPresence writes the online flag and last-seen stamp in a single UPDATE.
func (r *UserRepository) SetPresence(ctx context.Context, id uuid.UUID, online bool, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_online": online,
			"last_seen": at,
		}).Error
}

func (r *UserRepository) ListOnlineIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("is_online = ?", true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *UserRepository) MarkOffline(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id IN ? AND is_online = ?", ids, true).
		Updates(map[string]interface{}{
			"is_online": false,
			"last_seen": at,
		})
	return res.RowsAffected, res.Error
}

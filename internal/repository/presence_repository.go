package repository

import (
	"context"
	"strings"

	"github.com/evidark-org/evidark/internal/adapter"

	"github.com/google/uuid"
)

const onlineKeyPrefix = "online:"

// PresenceRepository keeps the online:<userId> snapshot in Redis so readers
// outside the hub (chat listings) can see who is connected.
type PresenceRepository struct {
	redisAdapter *adapter.RedisAdapter
}

func NewPresenceRepository(redisAdapter *adapter.RedisAdapter) *PresenceRepository {
	return &PresenceRepository{
		redisAdapter: redisAdapter,
	}
}

func OnlineKey(userID uuid.UUID) string {
	return onlineKeyPrefix + userID.String()
}

func (r *PresenceRepository) SetOnline(ctx context.Context, userID uuid.UUID) error {
	return r.redisAdapter.Set(ctx, OnlineKey(userID), "1", 0)
}

func (r *PresenceRepository) SetOffline(ctx context.Context, userIDs ...uuid.UUID) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, OnlineKey(id))
	}
	return r.redisAdapter.Del(ctx, keys...)
}

func (r *PresenceRepository) OnlineMap(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, OnlineKey(id))
	}

	exists, err := r.redisAdapter.ExistsMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]bool, len(userIDs))
	for i, id := range userIDs {
		out[id] = exists[i]
	}
	return out, nil
}

func (r *PresenceRepository) OnlineUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := r.redisAdapter.Keys(ctx, onlineKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(strings.TrimPrefix(key, onlineKeyPrefix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

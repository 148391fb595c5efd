package repository

import (
	"context"
	"time"

	"github.com/evidark-org/evidark/internal/adapter"
)

type RateLimitRepository struct {
	redisAdapter *adapter.RedisAdapter
}

func NewRateLimitRepository(redisAdapter *adapter.RedisAdapter) *RateLimitRepository {
	return &RateLimitRepository{
		redisAdapter: redisAdapter,
	}
}

// Allow counts a hit on key inside a fixed window and reports whether the
// count is still within limit, together with the time left in the window.
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	client := r.redisAdapter.Client()
	pipe := client.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	_, err := pipe.Exec(ctx)

	if err != nil {
		return false, 0, err
	}

	count := incr.Val()
	ttl := ttlCmd.Val()

	if count == 1 || ttl < 0 {
		if err := client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
		ttl = window
	}

	if count > int64(limit) {
		return false, ttl, nil
	}

	return true, ttl, nil
}

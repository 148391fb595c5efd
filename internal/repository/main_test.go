package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/evidark-org/evidark/internal/adapter"
	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenGorm(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*adapter.RedisAdapter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return adapter.NewRedisAdapterFromClient(client), mr
}

func createUser(t *testing.T, db *gorm.DB, name string) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:     name,
		Username: fmt.Sprintf("%s_%s", name, uuid.NewString()[:8]),
		Email:    fmt.Sprintf("%s_%s@example.com", name, uuid.NewString()[:8]),
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/evidark-org/evidark/internal/adapter"
	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/repository"
	"github.com/evidark-org/evidark/internal/telemetry"
	"github.com/evidark-org/evidark/internal/websocket"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentEvent struct {
	target string
	id     uuid.UUID
	event  websocket.Event
}

// fakeBroadcaster records fan-out instead of writing to sockets.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
	online map[uuid.UUID]bool
	inRoom map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		online: make(map[uuid.UUID]bool),
		inRoom: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeBroadcaster) BroadcastToRoom(chatID uuid.UUID, event websocket.Event, exclude *websocket.Client) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{target: "room", id: chatID, event: event})
	return len(f.inRoom[chatID])
}

func (f *fakeBroadcaster) BroadcastToUser(userID uuid.UUID, event websocket.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{target: "user", id: userID, event: event})
	return 1
}

func (f *fakeBroadcaster) UserInRoom(chatID, userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inRoom[chatID][userID]
}

func (f *fakeBroadcaster) IsOnline(userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeBroadcaster) join(chatID, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	if f.inRoom[chatID] == nil {
		f.inRoom[chatID] = make(map[uuid.UUID]bool)
	}
	f.inRoom[chatID][userID] = true
}

func (f *fakeBroadcaster) ofType(t websocket.EventType) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.events {
		if e.event.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeRooms struct {
	evicted []uuid.UUID
	closed  []uuid.UUID
}

func (f *fakeRooms) EvictUser(chatID, userID uuid.UUID) { f.evicted = append(f.evicted, userID) }
func (f *fakeRooms) CloseRoom(chatID uuid.UUID)         { f.closed = append(f.closed, chatID) }

type fixture struct {
	db          *gorm.DB
	mr          *miniredis.Miniredis
	repo        *repository.Repository
	cfg         *config.AppConfig
	broadcaster *fakeBroadcaster
	rooms       *fakeRooms
	metrics     *telemetry.Metrics
	presence    *PresenceService
	chats       *ChatService
	messages    *MessageService
	identity    *IdentityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenGorm(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.AppConfig{
		MessageMaxLength:        50,
		MessagePageLimitDefault: 50,
		MessagePageLimitMax:     100,
	}

	f := &fixture{
		db:          db,
		mr:          mr,
		repo:        repository.NewRepository(db, adapter.NewRedisAdapterFromClient(client)),
		cfg:         cfg,
		broadcaster: newFakeBroadcaster(),
		rooms:       &fakeRooms{},
		metrics:     telemetry.NewMetrics(),
	}
	validate := config.NewValidator()
	f.presence = NewPresenceService(f.repo)
	f.chats = NewChatService(f.repo, validate, f.presence, f.rooms)
	f.messages = NewMessageService(f.repo, cfg, validate, f.chats, f.broadcaster, f.metrics)
	f.identity = NewIdentityService(f.repo)
	return f
}

func (f *fixture) user(t *testing.T, name string) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:     name,
		Username: fmt.Sprintf("%s_%s", name, uuid.NewString()[:8]),
		Email:    fmt.Sprintf("%s_%s@example.com", name, uuid.NewString()[:8]),
	}
	require.NoError(t, f.repo.User.Create(context.Background(), u))
	return u
}

func (f *fixture) privateChat(t *testing.T, a, b *entity.User) uuid.UUID {
	t.Helper()

	chat, _, err := f.repo.Chat.CreatePrivateChatIfAbsent(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	return chat.ID
}

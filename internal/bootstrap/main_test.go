package bootstrap_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evidark-org/evidark/internal/adapter"
	"github.com/evidark-org/evidark/internal/bootstrap"
	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/repository"
	"github.com/evidark-org/evidark/internal/websocket"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	cfg    *config.AppConfig
	db     *gorm.DB
	repo   *repository.Repository
	app    *bootstrap.App
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenGorm(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisAdapter := adapter.NewRedisAdapterFromClient(client)

	cfg := &config.AppConfig{
		AppEnv:                  "test",
		AppCorsAllowedOrigins:   []string{"*"},
		JWTSecret:               "test-secret",
		JWTExp:                  3600,
		WSAuthTimeoutSeconds:    5,
		WSSendBuffer:            64,
		WSEventsPerSecond:       100,
		WSEventBurst:            100,
		MessageMaxLength:        5000,
		MessagePageLimitDefault: 50,
		MessagePageLimitMax:     100,
		RateLimitSendPerMinute:  60,
		PresenceReconcileCron:   "*/5 * * * *",
	}

	router := config.NewChi(cfg)
	app := bootstrap.Init(cfg, db, redisAdapter, config.NewValidator(), router)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		app.Hub.Run(ctx)
		close(hubDone)
	}()

	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hubDone
		app.Close()
		client.Close()
		sqlDB.Close()
	})

	return &testEnv{
		cfg:    cfg,
		db:     db,
		repo:   repository.NewRepository(db, redisAdapter),
		app:    app,
		server: server,
	}
}

func (e *testEnv) user(t *testing.T, name string) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:     name,
		Username: fmt.Sprintf("%s_%s", name, uuid.NewString()[:8]),
		Email:    fmt.Sprintf("%s_%s@example.com", name, uuid.NewString()[:8]),
	}
	require.NoError(t, e.repo.User.Create(context.Background(), u))
	return u
}

func (e *testEnv) token(t *testing.T, u *entity.User) string {
	t.Helper()

	token, err := helper.GenerateJWT(e.cfg.JWTSecret, e.cfg.JWTExp, u.ID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) privateChat(t *testing.T, a, b *entity.User) uuid.UUID {
	t.Helper()

	chat, _, err := e.repo.Chat.CreatePrivateChatIfAbsent(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	return chat.ID
}

func (e *testEnv) dial(t *testing.T, userID string) *ws.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?userId=" + userID
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *testEnv) request(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type wireEvent struct {
	Type    websocket.EventType  `json:"type"`
	Payload json.RawMessage      `json:"payload"`
	Meta    *websocket.EventMeta `json:"meta"`
}

func send(t *testing.T, conn *ws.Conn, eventType websocket.EventType, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": eventType, "payload": payload}))
}

// waitFor reads frames until one of eventType arrives, skipping others.
func waitFor(t *testing.T, conn *ws.Conn, eventType websocket.EventType) wireEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)

		var ev wireEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Type == eventType {
			return ev
		}
	}
}

// collect reads every frame that arrives within window.
func collect(conn *ws.Conn, window time.Duration) []wireEvent {
	conn.SetReadDeadline(time.Now().Add(window))
	defer conn.SetReadDeadline(time.Time{})

	var out []wireEvent
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return out
		}
		var ev wireEvent
		if json.Unmarshal(data, &ev) == nil {
			out = append(out, ev)
		}
	}
}

func joinChat(t *testing.T, conn *ws.Conn, chatID uuid.UUID) {
	t.Helper()
	send(t, conn, websocket.EventJoinChat, map[string]string{"chatId": chatID.String()})
	waitFor(t, conn, websocket.EventJoinedChat)
}

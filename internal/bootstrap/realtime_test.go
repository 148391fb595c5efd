package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtimeMessageDelivery(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	chatID := env.privateChat(t, alice, bob)

	connA := env.dial(t, alice.ID.String())
	connB := env.dial(t, bob.ID.String())
	joinChat(t, connA, chatID)
	joinChat(t, connB, chatID)

	send(t, connA, websocket.EventSendMessage, map[string]string{
		"chatId":   chatID.String(),
		"content":  "hello",
		"clientId": "opt-1",
	})

	ev := waitFor(t, connB, websocket.EventNewMessage)
	var msg model.MessageResponse
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, chatID, msg.ChatID)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, alice.ID, msg.Sender.ID)

	own := waitFor(t, connA, websocket.EventNewMessage)
	require.NotNil(t, own.Meta)
	assert.Equal(t, "opt-1", own.Meta.ClientID, "sender reconciles its optimistic copy")

	t.Run("Typing reaches the peer only", func(t *testing.T) {
		send(t, connA, websocket.EventTypingStart, map[string]string{"chatId": chatID.String()})

		ev := waitFor(t, connB, websocket.EventUserTyping)
		var typing model.TypingPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &typing))
		assert.Equal(t, alice.ID, typing.UserID)
		assert.Equal(t, "alice", typing.UserName)
	})

	t.Run("Disconnect clears typing", func(t *testing.T) {
		connA.Close()

		ev := waitFor(t, connB, websocket.EventUserStopTyping)
		var typing model.TypingPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &typing))
		assert.Equal(t, alice.ID, typing.UserID)
	})
}

func TestRealtimeRejectsNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	chatID := env.privateChat(t, alice, bob)

	connB := env.dial(t, bob.ID.String())
	joinChat(t, connB, chatID)

	connC := env.dial(t, carol.ID.String())

	send(t, connC, websocket.EventJoinChat, map[string]string{"chatId": chatID.String()})
	ev := waitFor(t, connC, websocket.EventError)
	var refusal websocket.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &refusal))
	assert.Equal(t, "You are not a participant of this chat", refusal.Message)

	send(t, connC, websocket.EventSendMessage, map[string]string{"chatId": chatID.String(), "content": "intrusion"})
	ev = waitFor(t, connC, websocket.EventError)
	require.NoError(t, json.Unmarshal(ev.Payload, &refusal))
	assert.Equal(t, websocket.EventSendMessage, refusal.Event)

	send(t, connC, websocket.EventJoinChat, "chat123")
	ev = waitFor(t, connC, websocket.EventError)
	require.NoError(t, json.Unmarshal(ev.Payload, &refusal))
	assert.Equal(t, "Payload must be an object", refusal.Message)

	for _, ev := range collect(connB, 300*time.Millisecond) {
		assert.NotEqual(t, websocket.EventNewMessage, ev.Type)
	}

	messages, total, err := env.repo.Message.GetPaginatedMessages(context.Background(), chatID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Zero(t, total)
}

func TestHandshakeRequiresKnownUser(t *testing.T) {
	env := newTestEnv(t)

	for name, userID := range map[string]string{
		"Missing": "",
		"Invalid": "not-a-uuid",
		"Unknown": uuid.NewString(),
	} {
		t.Run(name, func(t *testing.T) {
			wsURL := "ws" + env.server.URL[len("http"):] + "/ws?userId=" + userID
			_, resp, err := ws.DefaultDialer.Dial(wsURL, nil)

			assert.ErrorIs(t, err, ws.ErrBadHandshake)
			if assert.NotNil(t, resp) {
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			}
		})
	}

	t.Run("Header credential", func(t *testing.T) {
		alice := env.user(t, "alice")
		header := http.Header{}
		header.Set("X-User-ID", alice.ID.String())

		conn, _, err := ws.DefaultDialer.Dial("ws"+env.server.URL[len("http"):]+"/ws", header)
		require.NoError(t, err)
		conn.Close()
	})
}

func TestPresenceAcrossTabs(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	ctx := context.Background()

	isOnline := func() bool {
		u, err := env.repo.User.FindByID(ctx, alice.ID)
		return err == nil && u.IsOnline
	}

	observer := env.dial(t, bob.ID.String())
	require.Eventually(t, func() bool { return env.app.Hub.IsOnline(bob.ID) }, 2*time.Second, 10*time.Millisecond)

	tab1 := env.dial(t, alice.ID.String())
	tab2 := env.dial(t, alice.ID.String())

	assert.Eventually(t, func() bool { return env.app.Hub.ConnectionCount(alice.ID) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, isOnline, 2*time.Second, 10*time.Millisecond)

	ev := waitFor(t, observer, websocket.EventUserStatusChange)
	var status model.UserStatusPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &status))
	if status.UserID == bob.ID {
		ev = waitFor(t, observer, websocket.EventUserStatusChange)
		require.NoError(t, json.Unmarshal(ev.Payload, &status))
	}
	assert.Equal(t, alice.ID, status.UserID)
	assert.True(t, status.IsOnline)

	tab1.Close()
	assert.Eventually(t, func() bool { return env.app.Hub.ConnectionCount(alice.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, isOnline(), "one open tab keeps the user online")

	tab2.Close()
	assert.Eventually(t, func() bool { return !isOnline() }, 2*time.Second, 10*time.Millisecond)

	ev = waitFor(t, observer, websocket.EventUserStatusChange)
	require.NoError(t, json.Unmarshal(ev.Payload, &status))
	assert.Equal(t, alice.ID, status.UserID)
	assert.False(t, status.IsOnline)
	assert.NotEmpty(t, status.LastSeen)
}

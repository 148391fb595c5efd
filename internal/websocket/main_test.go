package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/evidark-org/evidark/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type presenceCall struct {
	userID uuid.UUID
	online bool
}

type fakePresenceStore struct {
	mu    sync.Mutex
	calls []presenceCall
}

func (f *fakePresenceStore) SetOnline(ctx context.Context, userID uuid.UUID, at time.Time) error {
	f.record(userID, true)
	return nil
}

func (f *fakePresenceStore) SetOffline(ctx context.Context, userID uuid.UUID, at time.Time) error {
	f.record(userID, false)
	return nil
}

func (f *fakePresenceStore) record(userID uuid.UUID, online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, presenceCall{userID: userID, online: online})
}

func (f *fakePresenceStore) Calls() []presenceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]presenceCall(nil), f.calls...)
}

type receivedEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Meta    *EventMeta      `json:"meta"`
}

func newTestClient(h *Hub, userID uuid.UUID, buffer int) *Client {
	return NewClient(h, nil, &model.UserDTO{ID: userID, Name: "user-" + userID.String()[:8]}, buffer)
}

func nextEvent(t *testing.T, c *Client) receivedEvent {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev receivedEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event queued")
		return receivedEvent{}
	}
}

func drainEvents(c *Client) []receivedEvent {
	var out []receivedEvent
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var ev receivedEvent
			if json.Unmarshal(data, &ev) == nil {
				out = append(out, ev)
			}
		default:
			return out
		}
	}
}

func eventTypes(events []receivedEvent) []EventType {
	types := make([]EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

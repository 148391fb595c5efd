package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/telemetry"

	"github.com/google/uuid"
)

// PresenceStore persists presence transitions.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID uuid.UUID, at time.Time) error
	SetOffline(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type presenceChange struct {
	userID uuid.UUID
	online bool
	at     time.Time
}

// Hub owns every live connection, the per-user connection sets that back
// presence, and the chat rooms. All sends to Client.Send happen under mu and
// only for registered clients, so closing Send under the write lock is safe.
type Hub struct {
	clients     map[*Client]bool
	userClients map[uuid.UUID]map[*Client]bool
	rooms       map[uuid.UUID]map[*Client]bool

	presenceStore PresenceStore
	metrics       *telemetry.Metrics

	pendingMu sync.Mutex
	pending   []presenceChange
	wake      chan struct{}

	// applyMu is held while a presence change is written to the store.
	applyMu sync.Mutex

	mu sync.RWMutex
}

func NewHub(presenceStore PresenceStore, metrics *telemetry.Metrics) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[uuid.UUID]map[*Client]bool),
		rooms:         make(map[uuid.UUID]map[*Client]bool),
		presenceStore: presenceStore,
		metrics:       metrics,
		wake:          make(chan struct{}, 1),
	}
}

// Run applies presence transitions in the order they happened until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			for _, change := range h.drainPresence() {
				h.applyPresence(flushCtx, change)
			}
			cancel()
			return
		case <-h.wake:
			for _, change := range h.drainPresence() {
				h.applyPresence(ctx, change)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	userSet, ok := h.userClients[client.UserID]
	if !ok {
		userSet = make(map[*Client]bool)
		h.userClients[client.UserID] = userSet
		h.enqueuePresence(presenceChange{userID: client.UserID, online: true, at: time.Now().UTC()})
	}
	userSet[client] = true

	h.updateGauges()
	slog.Debug("Client registered", "userID", client.UserID, "connections", len(userSet))
}

// Unregister drops client from the hub and every room it joined, and tells
// room peers it stopped typing. Calling it twice is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client)
	close(client.Send)

	for chatID := range client.rooms {
		h.removeFromRoom(client, chatID)
	}
	typing := make([]uuid.UUID, 0, len(client.typing))
	for chatID := range client.typing {
		typing = append(typing, chatID)
	}
	client.rooms = make(map[uuid.UUID]bool)
	client.typing = make(map[uuid.UUID]bool)

	if userSet, ok := h.userClients[client.UserID]; ok {
		delete(userSet, client)
		if len(userSet) == 0 {
			delete(h.userClients, client.UserID)
			h.enqueuePresence(presenceChange{userID: client.UserID, online: false, at: time.Now().UTC()})
		}
	}

	h.updateGauges()
	h.mu.Unlock()

	for _, chatID := range typing {
		h.BroadcastToRoom(chatID, stopTypingEvent(client, chatID), nil)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

// enqueuePresence must be called with mu held so the queue order matches
// the order of the transitions themselves.
func (h *Hub) enqueuePresence(change presenceChange) {
	h.pendingMu.Lock()
	h.pending = append(h.pending, change)
	h.pendingMu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) drainPresence() []presenceChange {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()

	changes := h.pending
	h.pending = nil
	return changes
}

func (h *Hub) applyPresence(ctx context.Context, change presenceChange) {
	h.applyMu.Lock()
	defer h.applyMu.Unlock()

	if h.presenceStore != nil {
		storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		var err error
		if change.online {
			err = h.presenceStore.SetOnline(storeCtx, change.userID, change.at)
		} else {
			err = h.presenceStore.SetOffline(storeCtx, change.userID, change.at)
		}
		cancel()
		if err != nil {
			slog.Error("Failed to persist presence change", "error", err, "userID", change.userID, "online", change.online)
		}
	}

	h.BroadcastAll(NewEvent(EventUserStatusChange, model.UserStatusPayload{
		UserID:   change.userID,
		IsOnline: change.online,
		LastSeen: helper.FormatTime(change.at),
	}).WithSender(change.userID))
}

// JoinRoom subscribes a registered client to chatID. It reports false when
// the client is already gone.
func (h *Hub) JoinRoom(client *Client, chatID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return false
	}

	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[chatID] = room
	}
	room[client] = true
	client.rooms[chatID] = true

	h.updateGauges()
	return true
}

func (h *Hub) LeaveRoom(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	wasTyping := client.typing[chatID]
	delete(client.typing, chatID)
	h.removeFromRoom(client, chatID)
	delete(client.rooms, chatID)
	h.updateGauges()
	h.mu.Unlock()

	if wasTyping {
		h.BroadcastToRoom(chatID, stopTypingEvent(client, chatID), nil)
	}
}

// EvictUser removes every connection of userID from chatID, used when the
// user stops being a participant.
func (h *Hub) EvictUser(chatID, userID uuid.UUID) {
	h.mu.RLock()
	var clients []*Client
	for c := range h.userClients[userID] {
		if h.rooms[chatID][c] {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.LeaveRoom(c, chatID)
		h.SendToClient(c, NewEvent(EventLeftChat, model.ChatIDPayload{ChatID: chatID}).WithChat(chatID))
	}
}

// CloseRoom unsubscribes every connection from chatID.
func (h *Hub) CloseRoom(chatID uuid.UUID) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.mu.Lock()
		delete(c.typing, chatID)
		delete(c.rooms, chatID)
		h.removeFromRoom(c, chatID)
		h.updateGauges()
		h.mu.Unlock()

		h.SendToClient(c, NewEvent(EventLeftChat, model.ChatIDPayload{ChatID: chatID}).WithChat(chatID))
	}
}

func (h *Hub) removeFromRoom(client *Client, chatID uuid.UUID) {
	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, chatID)
	}
}

func (h *Hub) InRoom(client *Client, chatID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[chatID][client]
}

// SetTyping records the typing state of client in chatID. Only a client
// subscribed to the room may type in it.
func (h *Hub) SetTyping(client *Client, chatID uuid.UUID, typing bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.rooms[chatID][client] {
		return false
	}
	if typing {
		client.typing[chatID] = true
	} else {
		delete(client.typing, chatID)
	}
	return true
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// UserInRoom reports whether any connection of userID is subscribed to chatID.
func (h *Hub) UserInRoom(chatID, userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.userClients[userID] {
		if h.rooms[chatID][c] {
			return true
		}
	}
	return false
}

// SerializePresence runs fn while no presence change is being persisted.
// Changes enqueued meanwhile are applied after fn returns, so a store write
// made by fn for a user that is offline at check time cannot overwrite a
// later online transition.
func (h *Hub) SerializePresence(fn func()) {
	h.applyMu.Lock()
	defer h.applyMu.Unlock()
	fn()
}

func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

func (h *Hub) RoomSize(chatID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// BroadcastToRoom fans event out to every connection in chatID except
// exclude and returns how many connections it was queued for.
func (h *Hub) BroadcastToRoom(chatID uuid.UUID, event Event, exclude *Client) int {
	data, ok := h.marshal(event)
	if !ok {
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	sent, slow := h.deliver(targets, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
	h.metrics.Broadcast(string(event.Type))
	return sent
}

func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) int {
	data, ok := h.marshal(event)
	if !ok {
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.userClients[userID]))
	for c := range h.userClients[userID] {
		targets = append(targets, c)
	}
	sent, slow := h.deliver(targets, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
	h.metrics.Broadcast(string(event.Type))
	return sent
}

func (h *Hub) BroadcastAll(event Event) int {
	data, ok := h.marshal(event)
	if !ok {
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	sent, slow := h.deliver(targets, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
	h.metrics.Broadcast(string(event.Type))
	return sent
}

// SendToClient queues event for a single connection.
func (h *Hub) SendToClient(client *Client, event Event) bool {
	data, ok := h.marshal(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	sent, slow := h.deliver([]*Client{client}, data)
	h.mu.RUnlock()

	h.dropSlow(slow)
	return sent == 1
}

// deliver must be called with mu held for reading.
func (h *Hub) deliver(targets []*Client, data []byte) (int, []*Client) {
	sent := 0
	var slow []*Client
	for _, c := range targets {
		if !h.clients[c] {
			continue
		}
		select {
		case c.Send <- data:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	return sent, slow
}

func (h *Hub) dropSlow(slow []*Client) {
	for _, c := range slow {
		slog.Warn("Dropping slow websocket client", "userID", c.UserID)
		h.Unregister(c)
	}
}

func (h *Hub) marshal(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", event.Type)
		return nil, false
	}
	return data, true
}

// updateGauges must be called with mu held.
func (h *Hub) updateGauges() {
	h.metrics.SetConnections(len(h.clients))
	h.metrics.SetRooms(len(h.rooms))
	h.metrics.SetOnlineUsers(len(h.userClients))
}

func stopTypingEvent(client *Client, chatID uuid.UUID) Event {
	return NewEvent(EventUserStopTyping, model.TypingPayload{
		UserID:   client.UserID,
		UserName: client.UserName,
		ChatID:   chatID,
	}).WithChat(chatID).WithSender(client.UserID)
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evidark-org/evidark/internal/repository"

	"github.com/google/uuid"
)

// PresenceService persists presence to the users table and mirrors it in the
// Redis online:<id> keys.
type PresenceService struct {
	repo *repository.Repository
}

func NewPresenceService(repo *repository.Repository) *PresenceService {
	return &PresenceService{
		repo: repo,
	}
}

func (s *PresenceService) SetOnline(ctx context.Context, userID uuid.UUID, at time.Time) error {
	dbErr := s.repo.User.SetPresence(ctx, userID, true, at)
	cacheErr := s.repo.Presence.SetOnline(ctx, userID)
	return errors.Join(dbErr, cacheErr)
}

func (s *PresenceService) SetOffline(ctx context.Context, userID uuid.UUID, at time.Time) error {
	dbErr := s.repo.User.SetPresence(ctx, userID, false, at)
	cacheErr := s.repo.Presence.SetOffline(ctx, userID)
	return errors.Join(dbErr, cacheErr)
}

// OnlineMap reports live presence for ids. A Redis failure yields nil so
// callers fall back to the persisted flag.
func (s *PresenceService) OnlineMap(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]bool {
	if len(ids) == 0 {
		return nil
	}
	online, err := s.repo.Presence.OnlineMap(ctx, ids)
	if err != nil {
		slog.Warn("Failed to read presence snapshot", "error", err)
		return nil
	}
	return online
}

// Reconcile marks offline every user flagged online, in the database or in
// Redis, for whom isLive reports no connection. isLive is asked after the
// flags are read. A nil isLive treats every user as disconnected. It returns
// how many users changed.
func (s *PresenceService) Reconcile(ctx context.Context, isLive func(uuid.UUID) bool) (int, error) {
	flagged, err := s.repo.User.ListOnlineIDs(ctx)
	if err != nil {
		return 0, err
	}
	cached, err := s.repo.Presence.OnlineUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	staleSet := make(map[uuid.UUID]bool)
	for _, id := range append(flagged, cached...) {
		if staleSet[id] {
			continue
		}
		if isLive == nil || !isLive(id) {
			staleSet[id] = true
		}
	}
	if len(staleSet) == 0 {
		return 0, nil
	}

	stale := make([]uuid.UUID, 0, len(staleSet))
	for id := range staleSet {
		stale = append(stale, id)
	}

	if _, err := s.repo.User.MarkOffline(ctx, stale, time.Now().UTC()); err != nil {
		return 0, err
	}
	if err := s.repo.Presence.SetOffline(ctx, stale...); err != nil {
		return 0, err
	}

	return len(stale), nil
}

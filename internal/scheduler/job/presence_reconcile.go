package job

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type PresenceReconciler interface {
	Reconcile(ctx context.Context, isLive func(uuid.UUID) bool) (int, error)
}

type LiveUsers interface {
	IsOnline(userID uuid.UUID) bool
	SerializePresence(fn func())
}

// RunPresenceReconcile clears the online flag of every user that has no live
// connection in this process. With a hub it runs between presence
// transitions so a user connecting meanwhile keeps the online flag.
func RunPresenceReconcile(ctx context.Context, presence PresenceReconciler, live LiveUsers) error {
	slog.Info("Running Presence Reconciliation")

	var (
		cleared int
		err     error
	)
	if live == nil {
		cleared, err = presence.Reconcile(ctx, nil)
	} else {
		live.SerializePresence(func() {
			cleared, err = presence.Reconcile(ctx, live.IsOnline)
		})
	}
	if err != nil {
		slog.Error("Failed to reconcile presence", "error", err, "cleared", cleared)
		return err
	}

	if cleared > 0 {
		slog.Info("Cleared stale presence", "count", cleared)
	}
	return nil
}

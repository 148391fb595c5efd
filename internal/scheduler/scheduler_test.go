package scheduler

import (
	"context"
	"testing"

	"github.com/evidark-org/evidark/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type countingReconciler struct {
	calls int
}

func (c *countingReconciler) Reconcile(ctx context.Context, isLive func(uuid.UUID) bool) (int, error) {
	c.calls++
	return 0, nil
}

func TestSchedulerStartRunsReconcileOnce(t *testing.T) {
	rec := &countingReconciler{}
	s := New(&config.AppConfig{PresenceReconcileCron: "*/5 * * * *"}, rec, nil)

	err := s.Start()
	defer s.Stop()

	assert.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	rec := &countingReconciler{}
	s := New(&config.AppConfig{PresenceReconcileCron: "not a cron"}, rec, nil)

	err := s.Start()

	assert.Error(t, err)
	assert.Equal(t, 0, rec.calls)
}

package job

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeReconciler struct {
	isLive  func(uuid.UUID) bool
	called  bool
	cleared int
	err     error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, isLive func(uuid.UUID) bool) (int, error) {
	f.called = true
	f.isLive = isLive
	return f.cleared, f.err
}

type fakeLive struct {
	online     map[uuid.UUID]bool
	serialized bool
}

func (f *fakeLive) IsOnline(userID uuid.UUID) bool { return f.online[userID] }

func (f *fakeLive) SerializePresence(fn func()) {
	f.serialized = true
	fn()
}

func TestRunPresenceReconcile(t *testing.T) {
	t.Run("Checks liveness through the hub", func(t *testing.T) {
		id := uuid.New()
		rec := &fakeReconciler{cleared: 2}
		live := &fakeLive{online: map[uuid.UUID]bool{id: true}}

		err := RunPresenceReconcile(context.Background(), rec, live)

		assert.NoError(t, err)
		assert.True(t, live.serialized)
		if assert.NotNil(t, rec.isLive) {
			assert.True(t, rec.isLive(id))
			assert.False(t, rec.isLive(uuid.New()))
		}
	})

	t.Run("No hub", func(t *testing.T) {
		rec := &fakeReconciler{}

		err := RunPresenceReconcile(context.Background(), rec, nil)

		assert.NoError(t, err)
		assert.True(t, rec.called)
		assert.Nil(t, rec.isLive)
	})

	t.Run("Propagates failure", func(t *testing.T) {
		rec := &fakeReconciler{err: errors.New("db down")}

		err := RunPresenceReconcile(context.Background(), rec, &fakeLive{})

		assert.Error(t, err)
	})
}

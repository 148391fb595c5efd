package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/evidark-org/evidark/internal/scheduler/job"
	"github.com/evidark-org/evidark/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectingReconciler lets a user connect after reconciliation has started
// and before the stored flags are read.
type connectingReconciler struct {
	inner   *service.PresenceService
	connect func()
}

func (r *connectingReconciler) Reconcile(ctx context.Context, isLive func(uuid.UUID) bool) (int, error) {
	r.connect()
	return r.inner.Reconcile(ctx, isLive)
}

// storedOnline reports the persisted flag and the Redis key for userID. Read
// failures count as offline so it can be polled from Eventually.
func (e *testEnv) storedOnline(t *testing.T, userID uuid.UUID) (bool, bool) {
	t.Helper()

	u, err := e.repo.User.FindByID(context.Background(), userID)
	if err != nil {
		t.Logf("load user: %v", err)
		return false, false
	}
	cached, err := e.repo.Presence.OnlineMap(context.Background(), []uuid.UUID{userID})
	if err != nil {
		t.Logf("read presence key: %v", err)
		return u.IsOnline, false
	}
	return u.IsOnline, cached[userID]
}

func TestPresenceReconcileClearsOnlyDisconnectedUsers(t *testing.T) {
	env := newTestEnv(t)
	presence := service.NewPresenceService(env.repo)
	ctx := context.Background()

	alice := env.user(t, "alice")
	ghost := env.user(t, "ghost")
	require.NoError(t, presence.SetOnline(ctx, ghost.ID, time.Now().UTC()))

	env.dial(t, alice.ID.String())
	require.Eventually(t, func() bool {
		db, cache := env.storedOnline(t, alice.ID)
		return db && cache
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, job.RunPresenceReconcile(ctx, presence, env.app.Hub))

	db, cache := env.storedOnline(t, alice.ID)
	assert.True(t, db)
	assert.True(t, cache)

	db, cache = env.storedOnline(t, ghost.ID)
	assert.False(t, db)
	assert.False(t, cache)
}

func TestPresenceReconcileKeepsUserConnectingMidRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	rec := &connectingReconciler{
		inner: service.NewPresenceService(env.repo),
		connect: func() {
			env.dial(t, alice.ID.String())
			require.Eventually(t, func() bool { return env.app.Hub.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)
		},
	}

	require.NoError(t, job.RunPresenceReconcile(ctx, rec, env.app.Hub))

	assert.Eventually(t, func() bool {
		db, cache := env.storedOnline(t, alice.ID)
		return db && cache
	}, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		db, cache := env.storedOnline(t, alice.ID)
		return !db || !cache
	}, 200*time.Millisecond, 20*time.Millisecond)
	assert.True(t, env.app.Hub.IsOnline(alice.ID))
}

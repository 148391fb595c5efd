package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("user-1")
		assert.True(t, allowed, "request %d should pass within burst", i)
	}

	allowed, delay := rl.Allow("user-1")
	assert.False(t, allowed)
	assert.Greater(t, delay, time.Duration(0))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()

	allowed, _ := rl.Allow("a")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("a")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("b")
	assert.True(t, allowed)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

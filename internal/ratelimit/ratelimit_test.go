package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, rps float64, burst int) (*KeyedRateLimiter, *fakeClock) {
	t.Helper()
	rl := New(rps, burst)
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 1, burst: 1, calls: 1, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newTestLimiter(t, tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("alice") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, 1)

	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"), "alice should be exhausted")
	assert.True(t, rl.Allow("bob"), "bob has his own bucket")
}

func TestKeyedRateLimiter_Refills(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, 1)

	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
	assert.Equal(t, 500*time.Millisecond, rl.RetryAfter("alice"))

	clock.advance(500 * time.Millisecond)
	assert.True(t, rl.Allow("alice"))
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, 1)

	rl.Allow("alice")
	clock.advance(DefaultIdleTTL / 2)
	rl.Allow("bob")
	assert.Equal(t, 2, rl.Len())

	clock.advance(DefaultIdleTTL/2 + time.Second)
	assert.Equal(t, 1, rl.evictIdle(clock.now()))
	assert.Equal(t, 1, rl.Len())
}

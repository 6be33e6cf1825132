package guard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGuard(maxAttempts int, window, lockout time.Duration, start time.Time) (*Login, *time.Time) {
	g := NewLogin(maxAttempts, window, lockout)
	current := start
	g.now = func() time.Time { return current }
	return g, &current
}

func TestLogin_LockAfterMaxAttempts(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute, 15*time.Minute, time.Now())

	for i := 0; i < 4; i++ {
		g.RecordFailure("a@b.com")
		assert.False(t, g.IsLocked("a@b.com"), "attempt %d must not lock", i+1)
	}

	g.RecordFailure("a@b.com")
	assert.True(t, g.IsLocked("a@b.com"))

	left := g.SecondsUntilUnlock("a@b.com")
	assert.Greater(t, left, int64(0))
	assert.LessOrEqual(t, left, int64(15*60))
}

func TestLogin_SuccessResets(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute, 15*time.Minute, time.Now())

	g.RecordFailure("a@b.com")
	g.RecordFailure("a@b.com")
	g.RecordSuccess("a@b.com")

	// The record is gone; four more failures stay under the threshold.
	for i := 0; i < 4; i++ {
		g.RecordFailure("a@b.com")
	}
	assert.False(t, g.IsLocked("a@b.com"))
}

func TestLogin_WindowElapsed_RestartsCount(t *testing.T) {
	start := time.Now()
	g, clock := newTestGuard(5, time.Minute, 15*time.Minute, start)

	for i := 0; i < 4; i++ {
		g.RecordFailure("a@b.com")
	}

	// A failure after the window elapsed starts a fresh window with count 1.
	*clock = start.Add(2 * time.Minute)
	g.RecordFailure("a@b.com")
	assert.False(t, g.IsLocked("a@b.com"))
}

func TestLogin_LockoutExpires(t *testing.T) {
	start := time.Now()
	g, clock := newTestGuard(5, time.Minute, 15*time.Minute, start)

	for i := 0; i < 5; i++ {
		g.RecordFailure("a@b.com")
	}
	assert.True(t, g.IsLocked("a@b.com"))

	*clock = start.Add(15*time.Minute + time.Second)
	assert.False(t, g.IsLocked("a@b.com"))
	assert.Equal(t, int64(0), g.SecondsUntilUnlock("a@b.com"))

	// The key is clean again after lockout expiry.
	_, ok := g.records.Load("a@b.com")
	assert.False(t, ok)
}

func TestLogin_KeysAreIndependent(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute, 15*time.Minute, time.Now())

	for i := 0; i < 5; i++ {
		g.RecordFailure("a@b.com")
	}
	assert.True(t, g.IsLocked("a@b.com"))
	assert.False(t, g.IsLocked("c@d.com"))
}

func TestLogin_UnknownKey(t *testing.T) {
	g, _ := newTestGuard(5, time.Minute, 15*time.Minute, time.Now())

	assert.False(t, g.IsLocked("nobody@b.com"))
	assert.Equal(t, int64(0), g.SecondsUntilUnlock("nobody@b.com"))
}

func TestLogin_PurgeStale(t *testing.T) {
	start := time.Now()
	g, clock := newTestGuard(5, time.Minute, 15*time.Minute, start)

	g.RecordFailure("accumulating@b.com")
	for i := 0; i < 5; i++ {
		g.RecordFailure("locked@b.com")
	}

	*clock = start.Add(16 * time.Minute)
	removed := g.PurgeStale()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, g.PurgeStale())
}

func TestLogin_ConcurrentFailuresOnSameKey(t *testing.T) {
	g, _ := newTestGuard(100, time.Minute, 15*time.Minute, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				g.RecordFailure("a@b.com")
			}
		}()
	}
	wg.Wait()

	// All 100 failures landed in one window; the key is exactly at the
	// threshold and locked.
	assert.True(t, g.IsLocked("a@b.com"))
}

package guard

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = time.Minute
	defaultLockout     = 15 * time.Minute
)

// Login tracks failed authentication attempts per key (normalized email) and
// enforces a temporary lockout once the threshold is reached within the
// failure window.
//
// Each key moves through three states: clean (no record), accumulating
// (1..max-1 failures inside the window) and locked (lockedUntil set). A
// success or an elapsed lockout returns the key to clean. Transitions on one
// key are atomic under the record mutex; unrelated keys never contend.
type Login struct {
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	records     sync.Map // key -> *record
	now         func() time.Time
}

type record struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// NewLogin creates a login guard. Non-positive parameters fall back to the
// defaults (5 attempts, 1 minute window, 15 minute lockout).
func NewLogin(maxAttempts int, window, lockout time.Duration) *Login {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &Login{
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

// RecordFailure counts a failed attempt for the key. The first failure after
// an elapsed window starts a fresh window; reaching the threshold sets the
// lockout deadline.
func (g *Login) RecordFailure(key string) {
	v, _ := g.records.LoadOrStore(key, &record{})
	rec := v.(*record)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := g.now()
	if rec.count == 0 || now.Sub(rec.windowStart) > g.window {
		rec.count = 1
		rec.windowStart = now
	} else {
		rec.count++
	}

	if rec.count >= g.maxAttempts {
		rec.lockedUntil = now.Add(g.lockout)
	}
}

// RecordSuccess returns the key to the clean state.
func (g *Login) RecordSuccess(key string) {
	g.records.Delete(key)
}

// IsLocked reports whether the key is currently locked out. An elapsed
// lockout clears the record. The count-within-window condition backs up the
// deadline check so a lagging lockedUntil never opens the gate early.
func (g *Login) IsLocked(key string) bool {
	v, ok := g.records.Load(key)
	if !ok {
		return false
	}
	rec := v.(*record)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := g.now()
	if !rec.lockedUntil.IsZero() {
		if now.After(rec.lockedUntil) {
			g.records.Delete(key)
			return false
		}
		return true
	}

	if rec.count >= g.maxAttempts && now.Sub(rec.windowStart) <= g.window {
		return true
	}

	return false
}

// SecondsUntilUnlock returns the remaining lockout rounded up to whole
// seconds, zero when the key is not locked.
func (g *Login) SecondsUntilUnlock(key string) int64 {
	v, ok := g.records.Load(key)
	if !ok {
		return 0
	}
	rec := v.(*record)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.lockedUntil.IsZero() {
		return 0
	}
	remaining := rec.lockedUntil.Sub(g.now())
	if remaining <= 0 {
		return 0
	}
	return int64((remaining + time.Second - 1) / time.Second)
}

// PurgeStale removes records whose lockout and failure window have both
// elapsed and returns the number removed.
func (g *Login) PurgeStale() int {
	now := g.now()
	removed := 0
	g.records.Range(func(key, value any) bool {
		rec := value.(*record)
		rec.mu.Lock()
		stale := false
		if !rec.lockedUntil.IsZero() {
			stale = now.After(rec.lockedUntil)
		} else {
			stale = now.Sub(rec.windowStart) > g.window
		}
		rec.mu.Unlock()
		if stale {
			g.records.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps stale records on the given interval until ctx is done.
func (g *Login) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.PurgeStale()
		}
	}
}

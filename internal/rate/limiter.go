package rate

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxRequests = 20
	defaultWindow      = time.Minute
)

// Limiter bounds the number of operations per key within a window. Keys are
// typically client address plus resource, so the limiter applies to every
// request regardless of authentication outcome.
type Limiter struct {
	max     int
	window  time.Duration
	windows sync.Map // key -> *window
	now     func() time.Time
}

type window struct {
	mu    sync.Mutex
	count int
	start time.Time
}

// NewLimiter creates a limiter. Non-positive parameters fall back to the
// defaults (20 requests per minute).
func NewLimiter(max int, windowDuration time.Duration) *Limiter {
	if max <= 0 {
		max = defaultMaxRequests
	}
	if windowDuration <= 0 {
		windowDuration = defaultWindow
	}
	return &Limiter{max: max, window: windowDuration, now: time.Now}
}

// Allow reports whether one more operation for the key fits in the current
// window. The first request of a fresh or elapsed window always passes. Once
// over the maximum the counter is clamped, so rejection stays deterministic
// under bursts.
func (l *Limiter) Allow(key string) bool {
	v, _ := l.windows.LoadOrStore(key, &window{})
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	if w.count == 0 || now.Sub(w.start) > l.window {
		w.count = 1
		w.start = now
		return true
	}

	if w.count > l.max {
		return false
	}
	w.count++
	return w.count <= l.max
}

// PurgeStale removes windows that have elapsed and returns the number
// removed.
func (l *Limiter) PurgeStale() int {
	now := l.now()
	removed := 0
	l.windows.Range(func(key, value any) bool {
		w := value.(*window)
		w.mu.Lock()
		stale := now.Sub(w.start) > l.window
		w.mu.Unlock()
		if stale {
			l.windows.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps stale windows on the given interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.PurgeStale()
		}
	}
}

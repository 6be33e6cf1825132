package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/ekdahl/libris-auth/internal/model"
)

// Memory is an in-process revocation store mapping raw token strings to
// their expiry instant. Storing the whole token string avoids a parse step on
// the revocation check, and the stored expiry keeps the map self-cleaning:
// entries outlive revocation no longer than the token would have lived.
//
// State is process-local. In a multi-instance deployment revocations are not
// shared between processes; see Redis for that topology.
type Memory struct {
	entries sync.Map // token string -> time.Time
	now     func() time.Time
}

var _ model.RevocationStore = (*Memory)(nil)

// NewMemory creates an empty in-memory revocation store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Revoke marks the token rejected until expiresAt. Idempotent.
func (m *Memory) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	m.entries.Store(token, expiresAt)
	return nil
}

// IsRevoked reports whether the token is revoked and not yet past its stored
// expiry. A stale entry observed here is purged as a side effect.
func (m *Memory) IsRevoked(_ context.Context, token string) (bool, error) {
	v, ok := m.entries.Load(token)
	if !ok {
		return false, nil
	}
	if m.now().After(v.(time.Time)) {
		m.entries.Delete(token)
		return false, nil
	}
	return true, nil
}

// PurgeExpired removes every entry whose expiry has passed.
func (m *Memory) PurgeExpired(_ context.Context) (int, error) {
	now := m.now()
	removed := 0
	m.entries.Range(func(key, value any) bool {
		if now.After(value.(time.Time)) {
			m.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed, nil
}

// Run sweeps expired entries on the given interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = m.PurgeExpired(ctx)
		}
	}
}

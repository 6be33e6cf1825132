package model

import (
	"context"
	"time"
)

// RevocationStore tracks tokens that must be rejected even while
// cryptographically valid. An entry lives no longer than the token's own
// expiry, so the store is self-cleaning.
type RevocationStore interface {
	// Revoke marks the token rejected until expiresAt. Idempotent; revoking
	// an already-expired token is a safe no-op.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	// PurgeExpired removes entries whose expiry has passed and returns the
	// number removed. Safe to call concurrently with reads and writes.
	PurgeExpired(ctx context.Context) (int, error)
}

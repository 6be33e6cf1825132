package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups for absent records. It is an
	// ordinary result, not an exceptional failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials never distinguishes an unknown identifier from a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid collapses malformed, badly signed, expired and
	// wrong-type tokens into a single outcome.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenRevoked is internally distinct from ErrTokenInvalid, but must
	// produce an identical externally observable unauthenticated outcome.
	ErrTokenRevoked = errors.New("token revoked")

	ErrRateLimited = errors.New("rate limit exceeded")
)

// AccountLockedError rejects a login while the key is locked out. RetryAfter
// is the remaining lockout in whole seconds.
type AccountLockedError struct {
	RetryAfter int64
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d seconds", e.RetryAfter)
}

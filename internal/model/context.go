package model

import "context"

// ContextManager attaches and retrieves the authenticated identity on a
// request context.
type ContextManager interface {
	WithIdentity(ctx context.Context, identity Identity) context.Context
	IdentityFromContext(ctx context.Context) (Identity, bool)
}

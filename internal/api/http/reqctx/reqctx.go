package reqctx

import (
	"context"

	"github.com/ekdahl/libris-auth/internal/model"
)

type ctxKey int

const identityKey ctxKey = iota

// Manager attaches the authenticated identity to request contexts and reads
// it back. The key is unexported, so only this package can write the value.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

// NewManager creates a request context manager.
func NewManager() *Manager {
	return &Manager{}
}

// WithIdentity returns a context carrying the identity.
func (m *Manager) WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity attached to the context, if any.
func (m *Manager) IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

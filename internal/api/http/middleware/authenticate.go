package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ekdahl/libris-auth/internal/logger"
	"github.com/ekdahl/libris-auth/internal/model"
)

// AuthService validates a bearer token, resolves its current identity and
// mints a renewal access token.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (model.Identity, string, error)
}

// Authenticate validates bearer tokens and attaches the resolved identity to
// the request context.
//
// This stage never rejects: an absent, invalid or revoked token leaves the
// request anonymous and the downstream authorization policy decides, since
// some endpoints are public. On success the renewal token is surfaced in the
// RenewalHeader so active sessions slide without re-login.
type Authenticate struct {
	auth           AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates the authentication middleware.
func NewAuthenticate(auth AuthService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{auth: auth, contextManager: contextManager, logger: logger}
}

// Handle wraps next with bearer token processing.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, renewed, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, model.ErrTokenInvalid) || errors.Is(err, model.ErrTokenRevoked) {
				// Revoked and invalid tokens must look identical from the
				// outside: the request proceeds unauthenticated.
				m.logger.Debug("authenticate: token rejected", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			m.logger.Error("authenticate: identity resolution failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set(RenewalHeader, renewed)
		next.ServeHTTP(w, r.WithContext(m.contextManager.WithIdentity(r.Context(), identity)))
	})
}

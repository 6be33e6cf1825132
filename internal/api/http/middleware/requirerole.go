package middleware

import (
	"net/http"

	"github.com/ekdahl/libris-auth/internal/model"
)

// RequireRole is the downstream authorization consumer of the attached
// identity: anonymous requests get 401, authenticated requests without the
// role get 403.
func RequireRole(contextManager model.ContextManager, role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := contextManager.IdentityFromContext(r.Context())
			if !ok || identity.Anonymous() {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.HasRole(role) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

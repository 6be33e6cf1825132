// Package router assembles the HTTP routing table and middleware chain.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ekdahl/libris-auth/internal/api/http/handler"
	"github.com/ekdahl/libris-auth/internal/api/http/middleware"
)

// New builds the router. Every request passes through logging, rate
// limiting and authentication; the auth endpoints themselves never
// require an identity, so protected application routes are expected to
// be mounted with middleware.RequireRole by the caller.
func New(
	auth *handler.Auth,
	logging *middleware.Logging,
	rateLimit middleware.Middleware,
	authenticate *middleware.Authenticate,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logging.Handle)
	r.Use(rateLimit)
	r.Use(authenticate.Handle)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/refresh", auth.Refresh)
		r.Post("/logout", auth.Logout)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

package middleware

import (
	"net/http"

	"github.com/ekdahl/libris-auth/internal/logger"
)

// Limiter bounds requests per key within a window.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit gates every request, authenticated or not, before any other
// processing. The key is client address plus request path, so one noisy
// client cannot starve a resource for everyone.
func RateLimit(limiter Limiter, log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path

			if !limiter.Allow(key) {
				log.Info("rate limit exceeded",
					"key", key,
					"method", r.Method)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

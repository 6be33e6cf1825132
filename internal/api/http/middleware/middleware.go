// Package middleware implements the request gate that runs in front of
// protected operations: rate limiting first, then token authentication with
// sliding renewal, then role checks for downstream handlers.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// RenewalHeader carries the freshly issued access token back to the caller
// after a successful authenticated request.
const RenewalHeader = "X-Auth-Refresh"

// Middleware is a standard http.Handler wrapper.
type Middleware func(next http.Handler) http.Handler

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// bearerToken extracts the token from the Authorization header. An absent or
// malformed header yields the empty string; rejection is not decided here.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// clientIP resolves the caller address, preferring the first entry of
// X-Forwarded-For over the socket peer.
func clientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		if ip := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap/internal/server/response"
)

// AuthConfig configures API key checks.
type AuthConfig struct {
	Enabled bool
	APIKey  string
	// HeaderName carries the key. "Authorization: Bearer <key>" is accepted too.
	HeaderName string
	// PublicPaths are served without a key.
	PublicPaths []string
}

// DefaultAuthConfig returns a disabled config with the default header and
// the public paths under /api/v1.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		HeaderName:  "X-API-Key",
		PublicPaths: PublicPaths("/api/v1"),
	}
}

// PublicPaths lists the health and documentation paths under prefix. They
// stay reachable without a key so orchestrators and API clients can use them.
func PublicPaths(prefix string) []string {
	return []string{
		"/health",
		prefix + "/health",
		prefix + "/ready",
		prefix + "/openapi.json",
		prefix + "/openapi.yaml",
	}
}

// Auth rejects requests to protected paths that lack the configured key.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r, config.HeaderName)
			if !validKey(key, config.APIKey) {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", key != "").
					Msg("Authentication failed")

				w.Header().Set("WWW-Authenticate", `Bearer realm="staymap"`)
				response.Unauthorized(w, config.HeaderName)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares keys in constant time. An empty configured key accepts nothing.
func validKey(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// requestKey reads the key from the configured header, then from a bearer
// Authorization header.
func requestKey(r *http.Request, header string) string {
	if key := r.Header.Get(header); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

package server

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
)

// Config configures the HTTP server.
type Config struct {
	Host string
	Port int
	// PathPrefix is prepended to every API route, e.g. "/api/v1".
	PathPrefix string

	CORSEnabled bool
	// CORSOrigins limits CORS to these origins. Empty allows any origin.
	CORSOrigins []string

	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int
	// CacheTTL is how long a snapshot is served before a read runs a cycle.
	CacheTTL time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig listens on localhost:8080 under /api/v1 without auth or
// CORS. The write timeout leaves room for a full cycle.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		PathPrefix:   "/api/v1",
		AuthHeader:   "X-API-Key",
		RateLimit:    100,
		CacheTTL:     constants.CacheTTL,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: constants.CycleTimeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}
}

// Addr is the host:port to listen on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// normalize fills zero values from DefaultConfig and rejects settings the
// server cannot run with.
func (c Config) normalize() (Config, error) {
	def := DefaultConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.AuthHeader == "" {
		c.AuthHeader = def.AuthHeader
	}
	c.PathPrefix = strings.TrimRight(c.PathPrefix, "/")

	switch {
	case c.Port < 0 || c.Port > 65535:
		return c, errors.NewConfigError("server", "port "+strconv.Itoa(c.Port)+" is out of range", nil)
	case c.PathPrefix != "" && !strings.HasPrefix(c.PathPrefix, "/"):
		return c, errors.NewConfigError("server", "path prefix must start with /", nil)
	case c.RateLimit < 0:
		return c, errors.NewConfigError("server", "rate limit must not be negative", nil)
	case c.AuthEnabled && c.APIKey == "":
		return c, errors.NewConfigError("server", "auth is enabled but no API key is set", nil)
	}
	return c, nil
}

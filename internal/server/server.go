package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/server/cache"
	"github.com/agentstation/staymap/internal/server/middleware"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/snapshot"
)

// Client is the part of staymap.Client the server uses.
type Client interface {
	staymap.Reader
	staymap.Syncer
	staymap.Hooks
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	client    Client
	cache     *cache.Cache
	limiter   *middleware.RateLimiter
	handler   http.Handler
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a new server instance with the given configuration.
// A nil logger uses the default logger.
func New(client Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.NewConfigError("server", "a client is required", nil)
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	s := &Server{
		client:    client,
		cache:     cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()
	s.handler = s.setupRouter()

	logger.Debug().
		Str("addr", cfg.Addr()).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Server instance created")
	return s, nil
}

// connectHooks keeps the cache on the newest snapshot whichever path ran
// the cycle.
func (s *Server) connectHooks() {
	s.client.OnCycleComplete(func(snap *snapshot.Snapshot) {
		s.cache.Put(snap)
		s.logger.Debug().
			Str("snapshot_id", snap.ID).
			Msg("Snapshot cached")
	})

	s.client.OnSynced(func(result *staymap.SyncResult) {
		s.logger.Info().
			Str("snapshot_id", result.Snapshot.ID).
			Int("writes", result.Writes()).
			Msg("Store synced")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns an http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Warm runs one cycle so the first request is served from cache.
func (s *Server) Warm(ctx context.Context) error {
	snap, err := s.client.Snapshot(ctx)
	if err != nil {
		return err
	}
	s.cache.Put(snap)
	return nil
}

// Shutdown releases background resources. It does not stop the listener.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	if s.limiter != nil {
		s.limiter.Close()
	}
	s.cache.Clear()
	return nil
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}

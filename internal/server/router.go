package server

import (
	"net/http"

	"github.com/agentstation/staymap/internal/server/handlers"
	"github.com/agentstation/staymap/internal/server/middleware"
	"github.com/agentstation/staymap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(s.client, s.cache, s.logger, s.startTime)
	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Snapshot reads
	mux.HandleFunc("GET "+prefix+"/snapshot", h.HandleSnapshot)
	mux.HandleFunc("GET "+prefix+"/categories", h.HandleCategories)
	mux.HandleFunc("GET "+prefix+"/units", h.HandleListUnits)
	mux.HandleFunc("GET "+prefix+"/units/{id}", h.HandleGetUnit)
	mux.HandleFunc("GET "+prefix+"/anomalies", h.HandleAnomalies)

	// API documentation (public)
	mux.HandleFunc("GET "+prefix+"/openapi.json", h.HandleOpenAPIJSON)
	mux.HandleFunc("GET "+prefix+"/openapi.yaml", h.HandleOpenAPIYAML)

	// Store writes
	mux.HandleFunc("POST "+prefix+"/sync", h.HandleSync)
}

// applyMiddleware wraps handler with the middleware chain. The outermost
// layer runs first: recovery, logging, CORS, auth, then rate limiting.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if s.limiter != nil {
		handler = middleware.RateLimit(s.limiter)(handler)
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		authConfig.PublicPaths = middleware.PublicPaths(cfg.PathPrefix)
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.ExposedHeaders = append(corsConfig.ExposedHeaders,
			response.SnapshotIDHeader, response.CacheHeader)
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowAll = false
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	handler = middleware.Logger(s.logger)(handler)
	return middleware.Recovery(s.logger)(handler)
}

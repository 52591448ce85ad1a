// Package handlers provides HTTP request handlers for the staymap API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/server/cache"
	"github.com/agentstation/staymap/internal/server/response"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/snapshot"
)

// Client runs cycles and syncs for the handlers.
type Client interface {
	staymap.Reader
	staymap.Syncer
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client    Client
	cache     *cache.Cache
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(client Client, cache *cache.Cache, logger *zerolog.Logger, startTime time.Time) *Handlers {
	return &Handlers{
		client:    client,
		cache:     cache,
		logger:    logger,
		startTime: startTime,
	}
}

// snapshot returns the cached snapshot, or runs a cycle when the cache is
// empty or expired or the caller asked for ?fresh=true. The snapshot ID and
// cache outcome are reported in response headers.
func (h *Handlers) snapshot(w http.ResponseWriter, r *http.Request) (*snapshot.Snapshot, error) {
	fresh, err := boolParam(r, "fresh")
	if err != nil {
		return nil, err
	}
	if !fresh {
		if snap, ok := h.cache.Latest(); ok {
			w.Header().Set(response.SnapshotIDHeader, snap.ID)
			w.Header().Set(response.CacheHeader, "HIT")
			return snap, nil
		}
	}

	snap, err := h.client.Snapshot(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Cycle failed")
		return nil, err
	}
	h.cache.Put(snap)
	w.Header().Set(response.SnapshotIDHeader, snap.ID)
	w.Header().Set(response.CacheHeader, "MISS")
	return snap, nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewValidationError(name, raw, "must be a boolean")
	}
	return v, nil
}

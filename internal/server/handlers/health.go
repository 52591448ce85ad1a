package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/staymap/internal/server/response"
)

// HandleHealth handles GET /api/v1/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "staymap-api",
		"version": "v1",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET /api/v1/ready. The server is ready once a cycle
// has completed.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	last, ok := h.client.LastSnapshot()
	if !ok {
		response.ServiceUnavailable(w, "No cycle has completed yet")
		return
	}

	response.OK(w, map[string]any{
		"status":      "ready",
		"snapshot_id": last.ID,
		"last_cycle":  last.TakenAt,
		"degraded":    last.Degraded,
		"cache":       h.cache.GetStats(),
	})
}

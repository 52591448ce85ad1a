package handlers

import (
	"net/http"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/server/response"
	"github.com/agentstation/staymap/pkg/logging"
)

// HandleSync handles POST /api/v1/sync. Query parameters dry_run and
// keep_stale map to the sync options of the same name.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	dryRun, err := boolParam(r, "dry_run")
	if err != nil {
		response.FromError(w, err)
		return
	}
	keepStale, err := boolParam(r, "keep_stale")
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.client.Sync(r.Context(),
		staymap.WithDryRun(dryRun),
		staymap.WithKeepStale(keepStale),
	)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Sync failed")
		response.FromError(w, err)
		return
	}
	h.cache.Put(result.Snapshot)

	response.OK(w, result)
}

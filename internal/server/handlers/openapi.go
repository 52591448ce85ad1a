package handlers

import (
	"net/http"

	"github.com/agentstation/staymap/internal/embedded/openapi"
	"github.com/agentstation/staymap/internal/server/response"
)

// HandleOpenAPIJSON handles GET /api/v1/openapi.json.
func (h *Handlers) HandleOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	spec, err := openapi.SpecJSON()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render OpenAPI document")
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec)
}

// HandleOpenAPIYAML handles GET /api/v1/openapi.yaml.
func (h *Handlers) HandleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.SpecYAML)
}

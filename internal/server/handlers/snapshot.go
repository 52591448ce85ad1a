package handlers

import (
	"net/http"

	"github.com/agentstation/staymap/internal/server/response"
	"github.com/agentstation/staymap/pkg/aggregate"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/units"
)

// HandleSnapshot handles GET /api/v1/snapshot.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, snap)
}

// CategoriesView is the body of GET /api/v1/categories.
type CategoriesView struct {
	SnapshotID string                       `json:"snapshot_id"`
	Date       string                       `json:"date"`
	Categories []aggregate.CategorySnapshot `json:"categories"`
	Portfolio  aggregate.CategorySnapshot   `json:"portfolio"`
}

// HandleCategories handles GET /api/v1/categories.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, CategoriesView{
		SnapshotID: snap.ID,
		Date:       snap.Date,
		Categories: snap.Categories,
		Portfolio: aggregate.CategorySnapshot{
			Available:     snap.Available,
			Reserved:      snap.Reserved,
			Blocked:       snap.Blocked,
			Total:         snap.Total,
			OccupancyRate: snap.OccupancyRate,
		},
	})
}

// HandleListUnits handles GET /api/v1/units. Optional status and category
// query parameters narrow the list.
func (h *Handlers) HandleListUnits(w http.ResponseWriter, r *http.Request) {
	var (
		status   units.Status
		category units.Category
		err      error
	)
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		if status, err = units.ParseStatus(raw); err != nil {
			response.FromError(w, errors.NewValidationError("status", raw, err.Error()))
			return
		}
	}
	if raw := q.Get("category"); raw != "" {
		if category, err = units.ParseCategory(raw); err != nil {
			response.FromError(w, errors.NewValidationError("category", raw, err.Error()))
			return
		}
	}

	snap, err := h.snapshot(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	rows := make([]snapshot.UnitRow, 0, len(snap.Units))
	for _, u := range snap.Units {
		if status != "" && u.Status != status {
			continue
		}
		if category != "" && u.Category != category {
			continue
		}
		rows = append(rows, u)
	}

	response.OK(w, map[string]any{
		"snapshot_id": snap.ID,
		"date":        snap.Date,
		"units":       rows,
		"count":       len(rows),
	})
}

// HandleGetUnit handles GET /api/v1/units/{id}.
func (h *Handlers) HandleGetUnit(w http.ResponseWriter, r *http.Request) {
	id := units.ID(r.PathValue("id"))

	snap, err := h.snapshot(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	row, ok := snap.Unit(id)
	if !ok {
		response.FromError(w, errors.NewNotFoundError("unit", id.String()))
		return
	}
	response.OK(w, row)
}

// HandleAnomalies handles GET /api/v1/anomalies.
func (h *Handlers) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(w, r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]any{
		"snapshot_id":      snap.ID,
		"date":             snap.Date,
		"anomalies":        snap.Anomalies,
		"degraded_units":   snap.DegradedUnits,
		"degraded_sources": snap.DegradedSources,
	})
}

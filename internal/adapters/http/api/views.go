package api

import (
	"net/http"

	"github.com/okian/podium/internal/domain/filter"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/internal/domain/session"
)

// ViewsHandler serves the derived views of a session snapshot.
type ViewsHandler struct {
	deps Dependencies
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies) *ViewsHandler {
	return &ViewsHandler{deps: deps}
}

type projectionResponse struct {
	Version     uint64                 `json:"version"`
	Source      session.Source         `json:"source"`
	Diagnostics pca.Diagnostics        `json:"diagnostics"`
	Points      []session.ScatterPoint `json:"points"`
}

type heatmapResponse struct {
	Version uint64                 `json:"version"`
	Mode    rollup.HeatmapMode     `json:"mode"`
	Labels  []string               `json:"labels"`
	Range   *session.HeatmapExtent `json:"range"`
	Table   rollup.Table           `json:"table"`
}

type timelineResponse struct {
	Version uint64                 `json:"version"`
	Points  []rollup.TimelinePoint `json:"points"`
	Summary rollup.Summary         `json:"summary"`
}

type optionsResponse struct {
	Version  uint64         `json:"version"`
	Criteria model.Criteria `json:"criteria"`
	Options  filter.Options `json:"options"`
}

func (h *ViewsHandler) snapshot(w http.ResponseWriter, r *http.Request, op string) (*session.Snapshot, bool) {
	snap, err := h.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return nil, false
	}
	return snap, true
}

// HandleProjection handles GET /sessions/{id}/projection requests.
func (h *ViewsHandler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "api.projection")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{
		Version:     snap.Version,
		Source:      snap.ProjectionSource,
		Diagnostics: snap.Projection.Diagnostics(),
		Points:      snap.ScatterPoints(),
	})
}

// HandleHeatmap handles GET /sessions/{id}/heatmap requests.
func (h *ViewsHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "api.heatmap")
	if !ok {
		return
	}
	labels := make([]string, len(snap.Heatmap.KeysB))
	for i, k := range snap.Heatmap.KeysB {
		labels[i] = rollup.ColumnLabel(snap.HeatmapMode, k)
	}
	writeJSON(w, http.StatusOK, heatmapResponse{
		Version: snap.Version,
		Mode:    snap.HeatmapMode,
		Labels:  labels,
		Range:   snap.HeatmapRange(),
		Table:   snap.Heatmap,
	})
}

// HandleTimeline handles GET /sessions/{id}/timeline requests.
func (h *ViewsHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "api.timeline")
	if !ok {
		return
	}
	points := snap.Timeline
	if points == nil {
		points = []rollup.TimelinePoint{}
	}
	writeJSON(w, http.StatusOK, timelineResponse{
		Version: snap.Version,
		Points:  points,
		Summary: snap.Summary,
	})
}

// HandleOptions handles GET /sessions/{id}/options requests.
func (h *ViewsHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "api.options")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		Version:  snap.Version,
		Criteria: snap.Criteria,
		Options:  snap.Options,
	})
}

package api

import (
	"net/http"

	"github.com/okian/podium/internal/domain/session"
)

// SessionsHandler creates, reads and closes sessions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type createdResponse struct {
	ID    string        `json:"id"`
	State stateResponse `json:"state"`
}

// stateResponse is the snapshot header plus view sizes.
type stateResponse struct {
	*session.Snapshot
	FilteredRows int                    `json:"filtered_rows"`
	ActiveRows   int                    `json:"active_rows"`
	HeatmapRange *session.HeatmapExtent `json:"heatmap_range"`
}

func newStateResponse(s *session.Snapshot) stateResponse {
	return stateResponse{
		Snapshot:     s,
		FilteredRows: len(s.Filtered),
		ActiveRows:   len(s.Active),
		HeatmapRange: s.HeatmapRange(),
	}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	id, snap, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, State: newStateResponse(snap)})
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	snap, err := h.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

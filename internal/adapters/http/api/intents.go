package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/podium/internal/domain/session"
)

// maxIntentBytes caps request bodies; a brush over a large dataset is the
// biggest intent.
const maxIntentBytes = 4 << 20

// IntentsHandler applies user intents to a session.
type IntentsHandler struct {
	deps Dependencies
}

// NewIntentsHandler creates a new intents handler.
func NewIntentsHandler(deps Dependencies) *IntentsHandler {
	return &IntentsHandler{deps: deps}
}

type intentResponse struct {
	Kind              session.ChangeKind `json:"kind"`
	ProjectionChanged bool               `json:"projection_changed"`
	TookMS            float64            `json:"took_ms"`
	ProjectionTookMS  float64            `json:"projection_took_ms"`
	Version           uint64             `json:"version"`
}

// HandlePostIntent handles POST /sessions/{id}/intents requests. The
// response carries the change kind so renderers can skip redraws.
func (h *IntentsHandler) HandlePostIntent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_intent"

	var in session.Intent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntentBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if in.Kind == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	ch, err := h.deps.Submit(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	resp := intentResponse{
		Kind:              ch.Kind,
		ProjectionChanged: ch.ProjectionChanged,
		TookMS:            millis(ch.Took),
		ProjectionTookMS:  millis(ch.ProjectionTook),
	}
	if ch.Snapshot != nil {
		resp.Version = ch.Snapshot.Version
	}
	writeJSON(w, http.StatusOK, resp)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

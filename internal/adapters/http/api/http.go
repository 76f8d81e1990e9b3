// Package api exposes dashboard sessions over JSON HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	eventqueue "github.com/okian/podium/internal/adapters/mq/queue"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context) (string, *session.Snapshot, error)
	CloseSession(ctx context.Context, id string) error
	Snapshot(ctx context.Context, id string) (*session.Snapshot, error)
	Submit(ctx context.Context, id string, in session.Intent) (session.Change, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	viewsHandler    *ViewsHandler
	intentsHandler  *IntentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		viewsHandler:    NewViewsHandler(deps),
		intentsHandler:  NewIntentsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions_delete"))

	mux.HandleFunc("GET /sessions/{id}/projection", MetricsMiddleware(s.viewsHandler.HandleProjection, "projection"))
	mux.HandleFunc("GET /sessions/{id}/heatmap", MetricsMiddleware(s.viewsHandler.HandleHeatmap, "heatmap"))
	mux.HandleFunc("GET /sessions/{id}/timeline", MetricsMiddleware(s.viewsHandler.HandleTimeline, "timeline"))
	mux.HandleFunc("GET /sessions/{id}/options", MetricsMiddleware(s.viewsHandler.HandleOptions, "options"))

	mux.HandleFunc("POST /sessions/{id}/intents", MetricsMiddleware(s.intentsHandler.HandlePostIntent, "intents"))
}

// StatusClientClosedRequest reports a request abandoned by the client before
// its intent completed. Not an IANA status; nginx uses the same code.
const StatusClientClosedRequest = 499

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps upstream error kinds onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, session.ErrInvalidIntent),
		errors.Is(err, session.ErrUnknownIntent),
		errors.Is(err, service.ErrReservedIntent):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrDuplicateIntent):
		return http.StatusConflict, "duplicate_intent"
	case errors.Is(err, eventqueue.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, eventqueue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "client_closed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

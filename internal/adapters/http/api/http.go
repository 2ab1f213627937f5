// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/drawtree/internal/app"
)

// Read shapes returned by the service.
type (
	SessionView   = service.SessionView
	ShareView     = service.ShareView
	ReferenceView = service.ReferenceView
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	ShareDependencies
	ReferenceDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionsHandler  *SessionsHandler
	shareHandler     *ShareHandler
	referenceHandler *ReferenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		sessionsHandler:  NewSessionsHandler(deps),
		shareHandler:     NewShareHandler(deps),
		referenceHandler: NewReferenceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /reference", MetricsMiddleware(s.referenceHandler.HandleGetReference, "reference"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleEnd, "session"))
	mux.HandleFunc("POST /sessions/{id}/start", MetricsMiddleware(s.sessionsHandler.HandleStart, "session_start"))
	mux.HandleFunc("POST /sessions/{id}/stop", MetricsMiddleware(s.sessionsHandler.HandleStop, "session_stop"))
	mux.HandleFunc("POST /sessions/{id}/draw", MetricsMiddleware(s.sessionsHandler.HandleDraw, "session_draw"))
	mux.HandleFunc("POST /sessions/{id}/orientation", MetricsMiddleware(s.sessionsHandler.HandleOrientation, "session_orientation"))
	mux.HandleFunc("POST /sessions/{id}/share", MetricsMiddleware(s.shareHandler.HandleShare, "session_share"))
	mux.HandleFunc("GET /sessions/{id}/share", MetricsMiddleware(s.shareHandler.HandleStatus, "session_share"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing the status, so an unencodable value
// turns into a 500 rather than a truncated success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Code: codeInternal, Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

package api

import "net/http"

// ReferenceDependencies defines the interface for reading the traced outline.
type ReferenceDependencies interface {
	Reference() ReferenceView
}

// ReferenceHandler handles reference outline requests.
type ReferenceHandler struct {
	deps ReferenceDependencies
}

// NewReferenceHandler creates a new reference handler.
func NewReferenceHandler(deps ReferenceDependencies) *ReferenceHandler {
	return &ReferenceHandler{deps: deps}
}

// HandleGetReference handles GET /reference requests.
func (h *ReferenceHandler) HandleGetReference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Reference())
}

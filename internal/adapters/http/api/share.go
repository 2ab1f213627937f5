package api

import (
	"context"
	"net/http"
)

// ShareDependencies defines the interface for share operations.
type ShareDependencies interface {
	// Share queues the latest scored attempt. duplicate is true when a job
	// for that attempt already exists.
	Share(ctx context.Context, id string) (view ShareView, duplicate bool, err error)
	ShareStatus(ctx context.Context, id string) (ShareView, error)
}

// ShareHandler handles share requests.
type ShareHandler struct {
	deps ShareDependencies
}

// NewShareHandler creates a new share handler.
func NewShareHandler(deps ShareDependencies) *ShareHandler {
	return &ShareHandler{deps: deps}
}

type shareResponse struct {
	ShareView
	Duplicate bool `json:"duplicate"`
}

// HandleShare handles POST /sessions/{id}/share requests.
func (h *ShareHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	v, dup, err := h.deps.Share(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.share", err))
		return
	}
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	writeJSON(w, status, shareResponse{ShareView: v, Duplicate: dup})
}

// HandleStatus handles GET /sessions/{id}/share requests.
func (h *ShareHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.ShareStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.share_status", err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

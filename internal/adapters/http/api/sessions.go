package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	service "github.com/okian/drawtree/internal/app"
	"github.com/okian/drawtree/internal/domain/device"
	"github.com/okian/drawtree/internal/domain/mapper"
)

// SessionDependencies defines the interface for session lifecycle operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context, req service.NewSessionRequest) (SessionView, error)
	GetSession(ctx context.Context, id string) (SessionView, error)
	EndSession(ctx context.Context, id string) error
	StartGame(ctx context.Context, id string) (SessionView, error)
	StopDraw(ctx context.Context, id string) (SessionView, error)
	Draw(ctx context.Context, id, phase string, ev mapper.Event, g mapper.Geometry) (SessionView, error)
	Orient(ctx context.Context, id string, width, height float64) (SessionView, error)
}

// SessionsHandler handles session requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	UserAgent      string  `json:"user_agent"`
	Platform       string  `json:"platform"`
	MaxTouchPoints int     `json:"max_touch_points"`
	HasTouchEvent  bool    `json:"has_touch_event"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
}

func (c createSessionRequest) validate() error {
	switch {
	case c.MaxTouchPoints < 0:
		return errors.New("max_touch_points must not be negative")
	case !finite(c.Width) || !finite(c.Height) || c.Width < 0 || c.Height < 0:
		return errors.New("width and height must be finite and not negative")
	}
	return nil
}

type touchRequest struct {
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
}

type surfaceRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ViewBox string  `json:"view_box"`
}

// drawRequest mirrors the OpenAPI schema for POST /sessions/{id}/draw.
type drawRequest struct {
	Phase   string          `json:"phase"`
	Touches []touchRequest  `json:"touches"`
	Surface *surfaceRequest `json:"surface"`
}

func (d drawRequest) validate() error {
	if strings.TrimSpace(d.Phase) == "" {
		return errors.New("missing phase")
	}
	for _, t := range d.Touches {
		if !finite(t.ClientX) || !finite(t.ClientY) {
			return errors.New("touch coordinates must be finite")
		}
	}
	if s := d.Surface; s != nil {
		if !finite(s.X) || !finite(s.Y) || !finite(s.Width) || !finite(s.Height) {
			return errors.New("surface must be finite")
		}
		if s.Width < 0 || s.Height < 0 {
			return errors.New("surface width and height must not be negative")
		}
	}
	return nil
}

// event converts the request into a gesture event and surface snapshot. A
// missing surface leaves the point unmapped; a malformed viewBox falls back
// to raw offsets.
func (d drawRequest) event() (mapper.Event, mapper.Geometry) {
	ev := mapper.Event{Touches: make([]mapper.Contact, 0, len(d.Touches))}
	for _, t := range d.Touches {
		ev.Touches = append(ev.Touches, mapper.Contact{ClientX: t.ClientX, ClientY: t.ClientY})
	}
	if d.Surface == nil {
		return ev, mapper.Geometry{}
	}
	rect := &mapper.Rect{X: d.Surface.X, Y: d.Surface.Y, Width: d.Surface.Width, Height: d.Surface.Height}
	g, _ := mapper.GeometryFromViewBox(rect, d.Surface.ViewBox)
	return ev, g
}

type orientationRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	v, err := h.deps.CreateSession(r.Context(), service.NewSessionRequest{
		Device: device.Report{
			UserAgent:      req.UserAgent,
			Platform:       req.Platform,
			MaxTouchPoints: req.MaxTouchPoints,
			HasTouchEvent:  req.HasTouchEvent,
		},
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleEnd handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		fail(w, Wrap("api.end_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStart handles POST /sessions/{id}/start requests.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.StartGame(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.start", err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleStop handles POST /sessions/{id}/stop requests.
func (h *SessionsHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.StopDraw(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.stop", err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDraw handles POST /sessions/{id}/draw requests.
func (h *SessionsHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	const op = "api.draw"
	var req drawRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, g := req.event()
	v, err := h.deps.Draw(r.Context(), r.PathValue("id"), req.Phase, ev, g)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleOrientation handles POST /sessions/{id}/orientation requests.
func (h *SessionsHandler) HandleOrientation(w http.ResponseWriter, r *http.Request) {
	const op = "api.orientation"
	var req orientationRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if !finite(req.Width) || !finite(req.Height) {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	v, err := h.deps.Orient(r.Context(), r.PathValue("id"), req.Width, req.Height)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

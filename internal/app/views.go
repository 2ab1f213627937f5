package service

import (
	"maps"

	"github.com/google/uuid"
	"github.com/okian/drawtree/internal/adapters/repository"
	"github.com/okian/drawtree/internal/domain/device"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/session"
)

// Share statuses reported by ShareView.
const (
	ShareNone      = "none"
	ShareQueued    = "queued"
	ShareSucceeded = "succeeded"
	ShareFailed    = "failed"
)

// Draw phases accepted by Service.Draw.
const (
	PhaseBegin = "begin"
	PhaseMove  = "move"
	PhaseEnd   = "end"
)

// NewSessionRequest describes the device opening a session.
type NewSessionRequest struct {
	Device device.Report
	Width  float64
	Height float64
}

// SessionView is the externally visible snapshot of a session.
type SessionView struct {
	ID          string        `json:"id"`
	State       string        `json:"state"`
	RemainingMS float64       `json:"remaining_ms"`
	TotalMS     float64       `json:"total_ms"`
	Clock       string        `json:"clock"`
	Epoch       uint64        `json:"epoch"`
	Capable     bool          `json:"capable"`
	Path        []model.Point `json:"path"`
	Score       *int          `json:"score,omitempty"`
	Star        bool          `json:"star"`
}

// ShareView is the share status of a session's latest attempt.
type ShareView struct {
	Status    string            `json:"status"`
	Epoch     uint64            `json:"epoch,omitempty"`
	Score     int               `json:"score,omitempty"`
	ImageURL  string            `json:"image_url,omitempty"`
	ViewerURL string            `json:"viewer_url,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// ReferenceView is the outline players trace.
type ReferenceView struct {
	ViewBox string        `json:"view_box"`
	Points  []model.Point `json:"points"`
}

func sessionView(id uuid.UUID, s *session.Session) SessionView {
	path := s.Path()
	if path == nil {
		path = model.Path{}
	}
	v := SessionView{
		ID:          id.String(),
		State:       s.State().String(),
		RemainingMS: s.Remaining(),
		TotalMS:     s.Total(),
		Clock:       model.FormatTime(s.Remaining()),
		Epoch:       s.Epoch(),
		Capable:     s.Capable(),
		Path:        path,
	}
	if score, ok := s.Score(); ok {
		v.Score = &score
		v.Star = model.EarnsStar(score)
	}
	return v
}

func shareView(r repository.ShareRecord) ShareView { //nolint:gocritic // hugeParam: value copy under the entry lock
	if r.Status == "" {
		return ShareView{Status: ShareNone}
	}
	return ShareView{
		Status:    r.Status,
		Epoch:     r.Epoch,
		Score:     r.Score,
		ImageURL:  r.ImageURL,
		ViewerURL: r.ViewerURL,
		Links:     maps.Clone(r.Links),
		Error:     r.Error,
	}
}

package tracesim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/drawtree/internal/domain/mapper"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/scoring"
)

const (
	simUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile trace-sim"

	sharePollInterval = 100 * time.Millisecond
)

// Surface is the drawing surface layout sent with each draw event.
type Surface struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ViewBox string  `json:"view_box"`
}

// Course is the prepared outline every player traces.
type Course struct {
	outline model.ReferenceOutline
	surface Surface
	scale   float64
}

// NewCourse prepares ref for tracing. The surface is laid out at twice the
// logical size with an offset, so every point goes through viewBox mapping.
func NewCourse(ref Reference) (*Course, error) {
	outline, err := model.NewReferenceOutline(ref.Points)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	vp, err := mapper.ParseViewport(ref.ViewBox)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	const scale = 2
	return &Course{
		outline: outline,
		scale:   scale,
		surface: Surface{
			X:       surfaceOffset,
			Y:       surfaceOffset,
			Width:   vp.Width * scale,
			Height:  vp.Height * scale,
			ViewBox: ref.ViewBox,
		},
	}, nil
}

const surfaceOffset = 16

// Plan returns the logical points a player traces: the leading coverage
// fraction of the outline, each offset by up to jitter in both axes.
func (c *Course) Plan(coverage, jitter float64, rng *rand.Rand) model.Path {
	n := int(math.Ceil(coverage * float64(c.outline.Len())))
	n = max(1, min(n, c.outline.Len()))
	pts := make(model.Path, n)
	for i := range n {
		p := c.outline.At(i)
		if jitter > 0 {
			p.X += (rng.Float64()*2 - 1) * jitter
			p.Y += (rng.Float64()*2 - 1) * jitter
		}
		pts[i] = p
	}
	return pts
}

// client converts a logical point to client coordinates on the surface.
func (c *Course) client(p model.Point, minX, minY float64) (float64, float64) {
	return c.surface.X + (p.X-minX)*c.scale, c.surface.Y + (p.Y-minY)*c.scale
}

// Expected scores path locally the way the server does.
func (c *Course) Expected(path model.Path, threshold float64) int {
	return scoring.Coverage(path, c.outline, threshold)
}

// Play runs one full attempt: create, start, trace, stop and optionally
// share. Errors are reported in the result.
func Play(ctx context.Context, client *Client, course *Course, cfg *Config, player int) (res Result) {
	start := time.Now()
	res.Player = player
	defer func() { res.Duration = time.Since(start) }()

	s, err := client.Create(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		res.Err = fmt.Errorf("session id %q: %w", s.ID, err)
		return res
	}
	id := s.ID
	res.Session = id
	defer func() { _ = client.End(context.WithoutCancel(ctx), id) }()

	if s, err = client.Start(ctx, id); err != nil {
		res.Err = err
		return res
	}

	vp, _ := mapper.ParseViewport(course.surface.ViewBox)
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(player))) //nolint:gosec // jitter only
	plan := course.Plan(cfg.Coverage, cfg.Jitter, rng)

	phase := "begin"
	for _, p := range plan {
		x, y := course.client(p, vp.MinX, vp.MinY)
		if s, err = client.Draw(ctx, id, phase, x, y, course.surface); err != nil {
			res.Err = err
			return res
		}
		res.Moves++
		phase = "move"
		if s.State != "drawing" {
			break
		}
	}
	if s.State == "drawing" {
		if s, err = client.Draw(ctx, id, "end", 0, 0, course.surface); err != nil {
			res.Err = err
			return res
		}
	}

	res.State = s.State
	res.Star = s.Star
	if s.Score == nil {
		res.Err = fmt.Errorf("session %s finished in %s without a score", id, s.State)
		return res
	}
	res.Score = *s.Score
	res.Expected = course.Expected(s.Path, cfg.Threshold)

	if cfg.Share {
		res.Share = share(ctx, client, id, cfg.ShareWait)
	}
	return res
}

// share queues a share and polls until it settles or wait elapses.
func share(ctx context.Context, client *Client, id string, wait time.Duration) string {
	sh, err := client.Share(ctx, id)
	if err != nil {
		return "error"
	}
	deadline := time.Now().Add(wait)
	for sh.Status == "queued" && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return sh.Status
		case <-time.After(sharePollInterval):
		}
		if sh, err = client.ShareStatus(ctx, id); err != nil {
			return "error"
		}
	}
	return sh.Status
}

// Package mapper converts pointer and touch positions in client space into
// the drawing surface's logical coordinate space.
package mapper

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/drawtree/internal/domain/model"
)

// viewBoxComponents is the number of values in an SVG-style viewBox.
const viewBoxComponents = 4

// ErrInvalidViewport reports a malformed logical viewport declaration.
var ErrInvalidViewport = errors.New("invalid viewport")

// Contact is one active touch or pointer contact in client coordinates.
type Contact struct {
	ClientX float64
	ClientY float64
}

// Event is a gesture event carrying zero or more active contacts. Only the
// first contact is used.
type Event struct {
	Touches []Contact
}

// Rect is the surface's bounding box in client space.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Viewport is the surface's declared logical coordinate space.
type Viewport struct {
	MinX   float64
	MinY   float64
	Width  float64
	Height float64
}

// Geometry is a snapshot of a drawing surface's on-screen layout. A nil
// Rect means the surface is not attached yet; a nil Viewport selects raw
// 1:1 offset mapping.
type Geometry struct {
	Rect     *Rect
	Viewport *Viewport
}

// MapEventToLocal maps the first contact of ev into the logical space of g.
// It returns false when no position is available: no active contact, no
// usable bounding box, or a position that does not come out finite.
func MapEventToLocal(ev Event, g Geometry) (model.Point, bool) {
	if len(ev.Touches) == 0 || g.Rect == nil || g.Rect.Width <= 0 || g.Rect.Height <= 0 {
		return model.Point{}, false
	}
	c := ev.Touches[0]
	dx := c.ClientX - g.Rect.X
	dy := c.ClientY - g.Rect.Y

	p := model.Point{X: dx, Y: dy}
	if vp := g.Viewport; vp != nil {
		p = model.Point{
			X: vp.MinX + dx/g.Rect.Width*vp.Width,
			Y: vp.MinY + dy/g.Rect.Height*vp.Height,
		}
	}
	if !finite(p.X) || !finite(p.Y) {
		return model.Point{}, false
	}
	return p, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ParseViewport parses an SVG viewBox value: four numbers separated by
// whitespace and/or commas. Width and height must be positive.
func ParseViewport(s string) (*Viewport, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != viewBoxComponents {
		return nil, fmt.Errorf("%w: want %d components, got %d", ErrInvalidViewport, viewBoxComponents, len(fields))
	}
	var v [viewBoxComponents]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %w", ErrInvalidViewport, i, err)
		}
		if !finite(n) {
			return nil, fmt.Errorf("%w: component %d is not finite", ErrInvalidViewport, i)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return nil, fmt.Errorf("%w: non-positive extent", ErrInvalidViewport)
	}
	return &Viewport{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}, nil
}

// GeometryFromViewBox builds a Geometry from a client rect and an optional
// viewBox declaration. An empty or malformed viewBox falls back to raw
// offset mapping; the parse error is returned so callers can log it.
func GeometryFromViewBox(rect *Rect, viewBox string) (Geometry, error) {
	g := Geometry{Rect: rect}
	if strings.TrimSpace(viewBox) == "" {
		return g, nil
	}
	vp, err := ParseViewport(viewBox)
	if err != nil {
		return g, err
	}
	g.Viewport = vp
	return g, nil
}

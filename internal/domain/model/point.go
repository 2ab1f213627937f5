// Package model contains domain models passed between layers.
package model

import "math"

// Point is a position in the drawing surface's logical coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Path is the temporal trace of one drawing gesture. Order is significant.
type Path []Point

// Clone returns an independent copy of the path. A nil path clones to an
// empty, non-nil path so JSON callers always see an array.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Len returns the number of recorded points.
func (p Path) Len() int { return len(p) }

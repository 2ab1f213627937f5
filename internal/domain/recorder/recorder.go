// Package recorder accumulates mapped points into a single drawing path,
// filtering out sensor jitter and spurious jumps.
package recorder

import "github.com/okian/drawtree/internal/domain/model"

// Default filter thresholds in logical units.
const (
	DefaultNoiseThreshold    = 2.0
	DefaultTeleportThreshold = 100.0
	defaultPathCapacity      = 256
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNoiseThreshold sets the minimum movement (exclusive) for a sample to
// be accepted. Negative values are ignored.
func WithNoiseThreshold(d float64) Option {
	return func(r *Recorder) {
		if d >= 0 {
			r.noise = d
		}
	}
}

// WithTeleportThreshold sets the maximum movement (exclusive) for a sample
// to be accepted. Zero disables the upper bound; negative values are ignored.
func WithTeleportThreshold(d float64) Option {
	return func(r *Recorder) {
		if d >= 0 {
			r.teleport = d
		}
	}
}

// Recorder owns one mutable path and the last accepted point. It is not
// safe for concurrent use.
type Recorder struct {
	path     model.Path
	last     model.Point
	hasLast  bool
	noise    float64
	teleport float64
}

// New creates a recorder with configuration options.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		path:     make(model.Path, 0, defaultPathCapacity),
		noise:    DefaultNoiseThreshold,
		teleport: DefaultTeleportThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin clears the path and starts it at p.
func (r *Recorder) Begin(p model.Point) {
	r.path = r.path[:0]
	r.path = append(r.path, p)
	r.last = p
	r.hasLast = true
}

// Extend appends p if it moved far enough from the last accepted point, and
// not too far. It reports whether p was accepted. Without a prior Begin
// every sample is rejected.
func (r *Recorder) Extend(p model.Point) bool {
	if !r.hasLast {
		return false
	}
	d := r.last.Dist(p)
	if d <= r.noise {
		return false
	}
	if r.teleport > 0 && d >= r.teleport {
		return false
	}
	r.path = append(r.path, p)
	r.last = p
	return true
}

// Finish returns a snapshot of the accumulated path. The path is kept until
// the next Begin or Reset.
func (r *Recorder) Finish() model.Path {
	return r.path.Clone()
}

// Reset drops the path and the last accepted point.
func (r *Recorder) Reset() {
	r.path = r.path[:0]
	r.last = model.Point{}
	r.hasLast = false
}

// Len returns the number of accepted points.
func (r *Recorder) Len() int { return len(r.path) }

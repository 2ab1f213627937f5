// Package device decides whether a client can play the touch-drawing game
// and whether its current surface orientation is usable.
package device

import "strings"

// Default orientation tolerance: the surface may be at most this much wider
// than it is tall.
const DefaultMaxAspectRatio = 1.0

// Report is what a client tells us about itself.
type Report struct {
	UserAgent      string
	Platform       string
	MaxTouchPoints int
	HasTouchEvent  bool
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithTouchMacAsMobile controls whether a touch-capable "MacIntel" platform
// (iPadOS requesting the desktop site) counts as mobile.
func WithTouchMacAsMobile(enabled bool) Option {
	return func(d *Detector) {
		d.touchMacAsMobile = enabled
	}
}

// WithMobileKeywords replaces the user-agent keywords that mark a mobile client.
func WithMobileKeywords(keywords []string) Option {
	return func(d *Detector) {
		if len(keywords) > 0 {
			d.keywords = append([]string(nil), keywords...)
		}
	}
}

// WithMaxAspectRatio sets the widest width/height ratio still considered
// suitable for drawing. Non-positive values are ignored.
func WithMaxAspectRatio(ratio float64) Option {
	return func(d *Detector) {
		if ratio > 0 {
			d.maxAspect = ratio
		}
	}
}

// Detector holds the capability heuristics.
type Detector struct {
	touchMacAsMobile bool
	keywords         []string
	maxAspect        float64
}

// NewDetector creates a detector with configuration options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		touchMacAsMobile: true,
		keywords:         []string{"iPhone", "Android", "Mobile"},
		maxAspect:        DefaultMaxAspectRatio,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsTouchDevice reports whether the client exposes touch input at all.
func (d *Detector) IsTouchDevice(r Report) bool {
	return r.HasTouchEvent || r.MaxTouchPoints > 0
}

// IsTablet reports whether the platform looks like an iPad.
func (d *Detector) IsTablet(r Report) bool {
	if strings.Contains(r.Platform, "iPad") {
		return true
	}
	return d.touchMacAsMobile && r.Platform == "MacIntel" && d.IsTouchDevice(r)
}

// Capable reports whether the client can play: a mobile or tablet client
// that also supports touch.
func (d *Detector) Capable(r Report) bool {
	mobile := d.IsTablet(r)
	for _, kw := range d.keywords {
		if strings.Contains(r.UserAgent, kw) {
			mobile = true
			break
		}
	}
	return mobile && d.IsTouchDevice(r)
}

// SuitableOrientation reports whether a surface of the given size can be
// drawn on. Unknown (non-positive) sizes are treated as suitable.
func (d *Detector) SuitableOrientation(width, height float64) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	return width/height <= d.maxAspect
}

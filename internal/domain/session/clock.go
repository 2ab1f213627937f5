package session

import "time"

// Clock is a monotonic millisecond source.
type Clock interface {
	NowMillis() float64
}

// SystemClock reads the process monotonic clock relative to its creation.
type SystemClock struct {
	origin time.Time
}

// NewSystemClock returns a clock anchored at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

// NowMillis returns milliseconds elapsed since the clock was created.
func (c *SystemClock) NowMillis() float64 {
	return float64(time.Since(c.origin)) / float64(time.Millisecond)
}

package model

import (
	"errors"
	"fmt"
	"math"
)

// Score bounds and the star award threshold shown on the result screen.
const (
	MinScore      = 0
	MaxScore      = 100
	StarThreshold = 70
)

// ErrEmptyOutline is returned when a reference outline has no points.
var ErrEmptyOutline = errors.New("reference outline is empty")

// EarnsStar reports whether a score is high enough for the star badge.
func EarnsStar(score int) bool { return score >= StarThreshold }

// FormatTime renders remaining milliseconds as "SS : CC" (seconds and
// centiseconds), the countdown format shown while drawing.
func FormatTime(ms float64) string {
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	seconds := int(math.Floor(ms/1000)) % 60
	centis := int(math.Round(math.Mod(ms, 1000) / 10))
	if centis > 99 {
		centis = 99
	}
	return fmt.Sprintf("%02d : %02d", seconds, centis)
}

// Package tracesim plays drawing sessions against a running server by
// tracing the reference outline, then reports the scores it got back.
package tracesim

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/scoring"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Players   int           // Number of sessions to play
	Workers   int           // Number of concurrent players
	Timeout   time.Duration // HTTP request timeout
	Jitter    float64       // Max offset added to each traced point, logical units
	Coverage  float64       // Fraction of the outline traced, 0-1
	Threshold float64       // Coverage threshold the server scores with
	Share     bool          // Share each scored attempt
	ShareWait time.Duration // How long to poll a queued share
	Seed      uint64        // Seed for the jitter source
	Verbose   bool          // Log every player
}

// DefaultConfig returns a config that traces the whole outline once.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:9080",
		Players:   10,
		Workers:   4,
		Timeout:   10 * time.Second,
		Jitter:    0,
		Coverage:  1,
		Threshold: scoring.DefaultThreshold,
		ShareWait: 5 * time.Second,
		Seed:      1,
	}
}

// ErrInvalidConfig indicates a config that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Validate checks the config for values that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: url must not be empty", ErrInvalidConfig)
	case c.Players <= 0:
		return fmt.Errorf("%w: players must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Coverage <= 0 || c.Coverage > 1:
		return fmt.Errorf("%w: coverage must be in (0, 1]", ErrInvalidConfig)
	case c.Jitter < 0:
		return fmt.Errorf("%w: jitter must not be negative", ErrInvalidConfig)
	case c.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// Session mirrors the server's session view.
type Session struct {
	ID          string        `json:"id"`
	State       string        `json:"state"`
	RemainingMS float64       `json:"remaining_ms"`
	Clock       string        `json:"clock"`
	Epoch       uint64        `json:"epoch"`
	Path        []model.Point `json:"path"`
	Score       *int          `json:"score"`
	Star        bool          `json:"star"`
}

// Share mirrors the server's share view.
type Share struct {
	Status    string            `json:"status"`
	Duplicate bool              `json:"duplicate"`
	ImageURL  string            `json:"image_url"`
	Links     map[string]string `json:"links"`
	Error     string            `json:"error"`
}

// Reference mirrors the server's reference outline.
type Reference struct {
	ViewBox string        `json:"view_box"`
	Points  []model.Point `json:"points"`
}

// Result is the outcome of one simulated player.
type Result struct {
	Player   int
	Session  string
	Score    int
	Expected int
	Star     bool
	State    string
	Share    string
	Moves    int
	Duration time.Duration
	Err      error
}

// Verified reports whether the server's score matches the score computed
// locally from the recorded path.
func (r Result) Verified() bool { return r.Err == nil && r.Score == r.Expected }

// Stats holds run statistics.
type Stats struct {
	Players   int
	Scored    int
	Stars     int
	Shared    int
	Failed    int
	Mismatch  int
	MeanScore float64
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

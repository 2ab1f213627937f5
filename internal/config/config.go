// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and DRAWTREE_ environment variables on top.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TotalDurationMS is the length of one drawing attempt.
	TotalDurationMS int `koanf:"total_duration_ms"`

	// TickIntervalMS is the cadence at which running countdowns are refreshed.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// NoiseThreshold and TeleportThreshold bound accepted pointer movement in
	// logical units. A zero teleport threshold disables the upper bound.
	NoiseThreshold    float64 `koanf:"noise_threshold"`
	TeleportThreshold float64 `koanf:"teleport_threshold"`

	// CoverageThreshold is the distance within which a reference point counts
	// as covered.
	CoverageThreshold float64 `koanf:"coverage_threshold"`

	// TouchMacIsMobile treats touch-capable MacIntel platforms as iPads.
	TouchMacIsMobile bool `koanf:"touch_mac_is_mobile"`

	// MaxAspectRatio is the widest width/height ratio still playable.
	MaxAspectRatio float64 `koanf:"max_aspect_ratio"`

	// ShardCount configures the number of shards in the session store.
	ShardCount int `koanf:"shard_count"`

	// SessionTTLSeconds evicts sessions idle for longer than this.
	SessionTTLSeconds int `koanf:"session_ttl_s"`

	// ShareQueueSize bounds the in-memory share job queue.
	ShareQueueSize int `koanf:"queue_size"`

	// ShareWorkerCount sets the number of share workers.
	ShareWorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the share in-flight cache.
	DedupeSize int `koanf:"dedupe_size"`

	// UploadURL is the ImgBB-compatible image upload endpoint.
	UploadURL string `koanf:"upload_url"`

	// UploadAPIKey is sent as the "key" form field. Empty disables uploads.
	UploadAPIKey string `koanf:"upload_api_key"`

	// UploadTimeoutMS bounds a single upload request.
	UploadTimeoutMS int `koanf:"upload_timeout_ms"`

	// SiteURL is linked from every share message.
	SiteURL string `koanf:"site_url"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		TotalDurationMS:   5000,
		TickIntervalMS:    100,
		NoiseThreshold:    2.0,
		TeleportThreshold: 100.0,
		CoverageThreshold: 20.0,
		TouchMacIsMobile:  true,
		MaxAspectRatio:    1.0,
		ShardCount:        8,
		SessionTTLSeconds: 900,
		ShareQueueSize:    1024,
		ShareWorkerCount:  runtime.NumCPU(),
		DedupeSize:        10_000,
		UploadURL:         "https://api.imgbb.com/1/upload",
		UploadTimeoutMS:   10_000,
		SiteURL:           "https://drawtree.netlify.app",
	}
}

// Validate checks values the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TotalDurationMS <= 0:
		return fmt.Errorf("%w: total_duration_ms must be positive", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.CoverageThreshold <= 0:
		return fmt.Errorf("%w: coverage_threshold must be positive", ErrInvalidConfig)
	case c.NoiseThreshold < 0 || c.TeleportThreshold < 0:
		return fmt.Errorf("%w: movement thresholds must not be negative", ErrInvalidConfig)
	case c.TeleportThreshold > 0 && c.TeleportThreshold <= c.NoiseThreshold:
		return fmt.Errorf("%w: teleport_threshold must exceed noise_threshold", ErrInvalidConfig)
	}
	return nil
}

package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrNotScored is returned when sharing an attempt that has no score yet.
	ErrNotScored = errors.New("attempt not scored")
	// ErrBackpressure is returned when the share queue cannot take more work.
	ErrBackpressure = errors.New("share queue full")
	// ErrUnknownPhase is returned for a draw phase other than begin, move or end.
	ErrUnknownPhase = errors.New("unknown draw phase")
)

package session

import "errors"

var (
	// ErrBlocked is returned when a gating state prevents the command.
	ErrBlocked = errors.New("session blocked")
	// ErrUnknownCommand is returned for commands the session does not handle.
	ErrUnknownCommand = errors.New("unknown command")
)

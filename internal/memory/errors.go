package memory

import "errors"

var (
	// ErrSessionNotFound is returned when a session id has no memory.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidArgument is returned on out-of-range parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

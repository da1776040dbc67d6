package core

import "errors"

var (
	// ErrInvalidArgument rejects a run before any work starts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIOFailure means a session record could not be written. The
	// in-memory report is still returned alongside it.
	ErrIOFailure = errors.New("io failure")
)

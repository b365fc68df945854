package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates the remote resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrTransport indicates a network or server failure talking to the remote
	ErrTransport = errors.New("transport failure")

	// ErrMalformed indicates a response body that could not be parsed at all
	ErrMalformed = errors.New("malformed response")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

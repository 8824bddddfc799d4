package services

import "errors"

// Sentinel errors for the orchestrator boundary. Handlers map these to HTTP
// statuses; everything else is an internal error.
var (
	// ErrValidation marks failures caught before any external call.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated marks operations attempted without a valid caller.
	ErrUnauthenticated = errors.New("authentication required")
)

package botline

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamClosed indicates the stream was cancelled by the caller.
	ErrStreamClosed = errors.New("stream closed")

	// ErrUnauthorized indicates the server rejected the bearer token.
	// The stored credentials have been cleared when this is returned.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotLoggedIn indicates no access token is stored.
	ErrNotLoggedIn = errors.New("not logged in")
)

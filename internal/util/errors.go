package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBrowserUnavailable indicates the remote-debugging browser could not be reached
	ErrBrowserUnavailable = errors.New("browser unavailable")

	// ErrSignedOut indicates the browser session was sent to a sign-in page
	ErrSignedOut = errors.New("not signed in")

	// ErrInvalidIdentity indicates a value carries no song identity
	ErrInvalidIdentity = errors.New("invalid song identity")

	// ErrUnsupported indicates an output format or file type is not supported
	ErrUnsupported = errors.New("unsupported")
)

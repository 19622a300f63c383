package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrNotFound is returned when a tracked download record does not exist.
	ErrNotFound = errors.New("tracked download not found")

	// ErrInvalidPath is returned when a client reports an output path that is
	// not valid on this OS. The download stays retryable.
	ErrInvalidPath = errors.New("invalid output path")

	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrReleaseBlocklisted is returned when a release was finalized by the
	// rejection handler and must not be retried by this layer.
	ErrReleaseBlocklisted = errors.New("release blocklisted")
)

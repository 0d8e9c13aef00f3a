package prerelease

import "errors"

// Domain errors for prerelease operations.
var (
	// ErrAlreadyInPre indicates pre mode was entered twice.
	ErrAlreadyInPre = errors.New("already in pre mode")

	// ErrNotInPre indicates an exit was requested outside pre mode.
	ErrNotInPre = errors.New("not in pre mode")

	// ErrInvalidState indicates a malformed pre state.
	ErrInvalidState = errors.New("invalid pre state")

	// ErrInvalidTransition indicates the lifecycle rejected an event.
	ErrInvalidTransition = errors.New("invalid pre mode transition")
)

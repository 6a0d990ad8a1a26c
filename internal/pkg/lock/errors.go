package lock

import "errors"

// Lock-related errors.
var (
	// ErrAlreadyRunning is returned when the lock file names a live process.
	ErrAlreadyRunning = errors.New("another instance is already running")
)

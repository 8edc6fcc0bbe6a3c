package medium

import "errors"

var (
	// ErrNotPresent is returned by Driver.Probe when no medium is inserted.
	ErrNotPresent = errors.New("medium not present")

	// ErrUninitialized is returned by Driver.Probe when the medium is
	// inserted but the driver has not been enabled.
	ErrUninitialized = errors.New("medium not initialized")

	// ErrNotifierClosed is returned when using a closed notifier.
	ErrNotifierClosed = errors.New("notifier is closed")

	// ErrAlreadyStarted is returned when Start is called on a running notifier.
	ErrAlreadyStarted = errors.New("notifier already started")

	// ErrCircuitBreakerOpen is sent once the notifier gives up on fsnotify errors.
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")
)

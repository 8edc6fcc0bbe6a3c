package controller

import "errors"

var (
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing controller dependency")

	// ErrAlreadyRunning is returned when Run is called while the loop is running.
	ErrAlreadyRunning = errors.New("controller is already running")

	// ErrCursorNotPersisted is reported when a write is held back because
	// the session index could not be persisted yet.
	ErrCursorNotPersisted = errors.New("session index not persisted")
)

package journal

import "errors"

var (
	// ErrNotFound is returned when no entry exists for an index.
	ErrNotFound = errors.New("session not found in journal")

	// ErrClosed is returned when checkpointing a session that has ended.
	ErrClosed = errors.New("session already ended")

	// ErrEmptyPath is returned when no database path is configured.
	ErrEmptyPath = errors.New("journal database path is empty")
)

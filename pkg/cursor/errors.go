package cursor

import "errors"

var (
	// ErrNoCursor is returned when the cursor file does not exist.
	ErrNoCursor = errors.New("cursor file not found")

	// ErrCorruptCursor is returned when the cursor file holds no decimal index.
	ErrCorruptCursor = errors.New("cursor file is corrupt")
)

// Defaulted reports whether err is one of the conditions for which
// ReadIndex falls back to index 0 rather than signalling a fault.
func Defaulted(err error) bool {
	return errors.Is(err, ErrNoCursor) || errors.Is(err, ErrCorruptCursor)
}

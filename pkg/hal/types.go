// Package hal drives the logger's user-facing hardware: the start/stop
// button and the indicator lamps.
//
// Pins are abstracted behind InputPin and OutputPin so the same Button and
// LED logic runs on periph.io GPIO lines or on in-memory fakes.
package hal

import "time"

// Edge is a debounced button transition.
type Edge int

// Button edges.
const (
	Press Edge = iota + 1
	Release
)

// String returns a human-readable edge name.
func (e Edge) String() string {
	switch e {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// InputPin is a digital input that can block for level changes.
type InputPin interface {
	// Read returns the current level, true for high.
	Read() bool

	// WaitForEdge blocks until the level may have changed or timeout
	// elapses. It returns false on timeout.
	WaitForEdge(timeout time.Duration) bool
}

// OutputPin is a digital output.
type OutputPin interface {
	// Set drives the pin high (true) or low (false).
	Set(high bool) error
}

// Indicator is a lamp that can be lit, dark or blinking.
type Indicator interface {
	On() error
	Off() error

	// Blink toggles the lamp, lit for on and dark for off, until the next
	// On, Off or Blink call.
	Blink(on, off time.Duration) error
}

// ButtonConfig configures button edge detection.
type ButtonConfig struct {
	// ActiveLow reports a press when the line is pulled low.
	ActiveLow bool

	// Debounce ignores transitions closer than this to the previous one.
	// Default: 50ms.
	Debounce time.Duration

	// Poll bounds each wait for an edge so cancellation is observed.
	// Default: 200ms.
	Poll time.Duration
}

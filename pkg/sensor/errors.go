package sensor

import "errors"

var (
	// ErrNotReady is returned when a sensor is not answering on the bus.
	ErrNotReady = errors.New("sensor not ready")

	// ErrNoSensors is returned when a hardware source has nothing enabled.
	ErrNoSensors = errors.New("no sensors enabled")

	// ErrNoBattery is returned when no voltage source can be found.
	ErrNoBattery = errors.New("battery voltage not available")
)

// Package medium tracks the availability of the removable storage medium.
//
// A Driver exposes the raw probe/enable/disable primitives of the medium.
// The Monitor turns successive probes into the Inserted/Removed state
// machine the logging loop relies on: it reinitializes the driver once
// after an ejection, enables an uninitialized medium exactly once per
// probe, and keeps the presence indicator in step with the state.
//
//	drv := medium.NewDirDriver(medium.DirConfig{MountPath: "/media/sd"}, log)
//	mon := medium.NewMonitor(drv, presenceLED, log)
//	ok, err := mon.Step()
//	if err != nil && !errcode.Transient(err) {
//	    // escalate
//	}
//	if ok {
//	    // safe to write this iteration
//	}
package medium

import "time"

// State is the availability state of the medium.
type State int

// Medium states.
const (
	Removed State = iota
	Inserted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Driver is the low-level access to a removable medium.
type Driver interface {
	// Probe reports whether the medium is present and usable.
	//
	// Returns:
	//   - nil when the medium is present and initialized
	//   - ErrNotPresent when no medium is inserted
	//   - ErrUninitialized when a medium is inserted but the driver is not enabled
	//   - any other error for a faulty medium
	Probe() error

	// Enable initializes the driver for the inserted medium.
	Enable() error

	// Disable releases the driver.
	Disable() error

	// Root is the directory at which the medium's filesystem is reachable.
	Root() string
}

// Indicator is the presence lamp driven by the monitor.
type Indicator interface {
	On() error
	Off() error
}

// Monitor runs the presence state machine, one step per loop iteration.
type Monitor interface {
	// Step probes the medium once and applies the resulting transition.
	//
	// Returns:
	//   - true if writes are permitted during this iteration
	//   - nil, or an error tagged errcode.MediumAbsent or
	//     errcode.MediumUninitialized for conditions callers absorb
	//     (errcode.Transient), or any other code for faults to escalate
	Step() (bool, error)

	// State returns the current state. It does not wait for a Step in
	// progress.
	State() State

	// Reinits returns how many disable/enable cycles followed an ejection.
	Reinits() uint64
}

// DirConfig configures a directory-backed driver.
type DirConfig struct {
	// MountPath is where the medium's filesystem is mounted.
	MountPath string

	// RequireMountpoint treats MountPath as absent unless a filesystem is
	// mounted on it. Disable for plain directories (simulation, tests).
	RequireMountpoint bool
}

// NotifierConfig configures the hot-plug notifier.
type NotifierConfig struct {
	// MountPath is the medium mount point. Its parent directory is watched
	// as well, so mount point creation and removal are observed.
	MountPath string

	// DebounceInterval coalesces bursts of filesystem events.
	// Default: 200ms.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which the notifier stops forwarding errors.
	// Default: 5.
	CircuitBreakerThreshold int
}

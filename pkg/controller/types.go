// Package controller runs the logging session state machine and the
// periodic sampling loop.
//
// The Controller owns every mutable counter of the logger: the session
// index, the cycle counter and the write offset. A single goroutine (Run)
// samples the sensors, appends records to the session file and persists
// the cursor. Button presses only queue a toggle and wake the loop; the
// transition itself is applied by the loop at the next iteration boundary,
// so the storage medium has exactly one writer.
//
//	ctl, err := controller.New(cfg, controller.Deps{...}, log)
//	if err != nil {
//	    return err
//	}
//	go button.Run(ctx, ctl.HandleEdge)
//	return ctl.Run(ctx)
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/0xmhha/sdlogger/pkg/cursor"
	"github.com/0xmhha/sdlogger/pkg/hal"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/medium"
	"github.com/0xmhha/sdlogger/pkg/report"
	"github.com/0xmhha/sdlogger/pkg/sensor"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// DefaultCeiling is the number of cycles after which a session rolls over.
const DefaultCeiling = 65535

// State is the session state.
type State int

// Session states.
const (
	Idle State = iota
	Logging
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Logging:
		return "logging"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "logging":
		*s = Logging
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Config holds the sampler configuration.
type Config struct {
	// Period is the sampling period while logging (default: 1s).
	// It is also the elapsed-time unit written in each record.
	Period time.Duration

	// IdleInterval is the housekeeping sleep while idle (default: 5s).
	IdleInterval time.Duration

	// Ceiling is the cycle count at which a session rolls over
	// (default: 65535).
	Ceiling uint32

	// BlinkOn and BlinkOff set the activity lamp pattern while logging
	// (default: 500ms each).
	BlinkOn  time.Duration
	BlinkOff time.Duration

	// CheckpointEvery is the number of records between journal
	// checkpoints (default: 60).
	CheckpointEvery uint64
}

// Deps are the collaborators of the controller. Journal and Activity are
// optional; everything else is required.
type Deps struct {
	Cursor   cursor.Store
	Medium   medium.Monitor
	Writer   sessionlog.Writer
	Sensors  sensor.Source
	Battery  sensor.Battery
	Activity hal.Indicator
	Journal  journal.Journal
	Reporter report.Reporter
}

// Status is a point-in-time snapshot of the controller.
//
// SessionIndex moves to the next index when a session begins, which is the
// first iteration after a start press at which the medium is available.
// Until then SessionPending is set and File is empty.
type Status struct {
	State          State     `json:"state"`
	LoggingEnabled bool      `json:"logging_enabled"`
	CursorLoaded   bool      `json:"cursor_loaded"`
	SessionPending bool      `json:"session_pending"`
	SessionIndex   uint32    `json:"session_index"`
	File           string    `json:"file,omitempty"`
	Cycle          uint32    `json:"cycle"`
	WriteOffset    int64     `json:"write_offset"`
	SessionRecords uint64    `json:"session_records"`
	TotalRecords   uint64    `json:"total_records"`
	Medium         string    `json:"medium"`
	Reinits        uint64    `json:"reinits"`
	PendingPresses int       `json:"pending_presses"`
	SessionStart   time.Time `json:"session_start"`
	LastWrite      time.Time `json:"last_write"`
	LastError      string    `json:"last_error,omitempty"`
}

// Controller is the session state machine plus its sampling loop.
type Controller interface {
	// Run loads the cursor and samples until ctx is cancelled.
	// It returns nil on cancellation.
	Run(ctx context.Context) error

	// Press queues one logging toggle and wakes the loop. It never blocks
	// and never touches storage.
	Press()

	// HandleEdge forwards press edges to Press; release edges are ignored.
	HandleEdge(e hal.Edge)

	// Wake interrupts the current sleep without queuing a toggle.
	Wake()

	// Enabled reports whether logging is on. It does not take the
	// controller lock.
	Enabled() bool

	// Status returns a snapshot of the controller state.
	Status() Status
}

// Package errcode defines the stable error codes and severities the logger
// reports through its error sink.
//
// A Code is a string newtype that implements error, so it can be returned
// bare or wrapped in an *E that keeps the operation and the cause:
//
//	return errcode.Wrap(errcode.WriteFailed, "append", err)
package errcode

import "errors"

// Code is a stable, comparable error identifier.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes.
const (
	OK Code = "ok"

	MediumAbsent        Code = "medium_absent"
	MediumUninitialized Code = "medium_uninitialized"
	MediumIO            Code = "medium_io"
	Reinitialize        Code = "medium_reinit"

	SensorRead     Code = "sensor_read"
	SensorNotReady Code = "sensor_not_ready"
	BatteryRead    Code = "battery_read"

	WriteFailed Code = "write_failed"
	CursorWrite Code = "cursor_write"
	Journal     Code = "journal"

	SetupFailed Code = "setup_failed"

	Error Code = "error" // generic fallback
)

// Severity classifies how a reported error affects the control loop.
type Severity int

// Severities in increasing order.
const (
	Info Severity = iota
	Warning
	Err
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Err:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// E carries a code together with the failed operation and its cause.
type E struct {
	C   Code
	Sev Severity
	Op  string
	Err error
}

func (e *E) Error() string {
	msg := string(e.C)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *E) Unwrap() error      { return e.Err }
func (e *E) Code() Code         { return e.C }
func (e *E) Severity() Severity { return e.Sev }

// Wrap tags err with code c and the code's default severity.
// A nil err yields nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Sev: DefaultSeverity(c), Op: op, Err: err}
}

// WithSeverity tags err with an explicit severity.
func WithSeverity(c Code, sev Severity, op string, err error) error {
	return &E{C: c, Sev: sev, Op: op, Err: err}
}

type coder interface{ Code() Code }
type severer interface{ Severity() Severity }

// Of extracts the outermost Code in err's chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return Error
}

// SeverityOf returns the severity attached to err, or the default
// severity of its code.
func SeverityOf(err error) Severity {
	if err == nil {
		return Info
	}
	var s severer
	if errors.As(err, &s) {
		return s.Severity()
	}
	return DefaultSeverity(Of(err))
}

// DefaultSeverity maps each code to the severity it is reported with
// unless overridden.
func DefaultSeverity(c Code) Severity {
	switch c {
	case OK, MediumAbsent, MediumUninitialized:
		return Info
	case Reinitialize, SensorNotReady:
		return Warning
	case SetupFailed:
		return Fatal
	default:
		return Err
	}
}

// Transient reports whether err describes a condition the control loop
// absorbs silently.
func Transient(err error) bool {
	switch Of(err) {
	case MediumAbsent, MediumUninitialized:
		return true
	}
	return false
}

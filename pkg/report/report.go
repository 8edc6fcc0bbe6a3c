// Package report is the top-level error sink of the logging loop.
//
// Components never decide whether an error halts the device. They hand it
// to a Reporter, which records the code and severity carried by the error
// (see package errcode) and returns. Only the setup path in main treats a
// fatal report as a reason to exit.
package report

import (
	"sync"

	"github.com/0xmhha/sdlogger/pkg/errcode"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/metrics"
)

// Reporter accepts errors tagged with a severity and a code.
type Reporter interface {
	// Report records err. A nil err is ignored.
	Report(err error)
}

// Entry is one reported error as seen by Recorder.
type Entry struct {
	Code     errcode.Code
	Severity errcode.Severity
	Err      error
}

type logReporter struct {
	log logger.Logger
}

// New returns a Reporter that logs each error at a level matching its
// severity and counts it in sdlogger_errors_total.
func New(log logger.Logger) Reporter {
	if log == nil {
		log = logger.Noop()
	}
	return &logReporter{log: log.With("component", "report")}
}

func (r *logReporter) Report(err error) {
	if err == nil {
		return
	}

	code := errcode.Of(err)
	sev := errcode.SeverityOf(err)
	metrics.RecordError(string(code), sev.String())

	kv := []interface{}{"code", code, "severity", sev.String(), "error", err}
	switch sev {
	case errcode.Info:
		r.log.Info("condition reported", kv...)
	case errcode.Warning:
		r.log.Warn("condition reported", kv...)
	default:
		r.log.Error("error reported", kv...)
	}
}

// Recorder is a Reporter that keeps every entry in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Report implements Reporter.
func (r *Recorder) Report(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Code:     errcode.Of(err),
		Severity: errcode.SeverityOf(err),
		Err:      err,
	})
}

// Entries returns a copy of everything reported so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Codes returns the codes reported so far, in order.
func (r *Recorder) Codes() []errcode.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]errcode.Code, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Code)
	}
	return out
}

// Multi fans a report out to several reporters.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(err error) {
	for _, r := range m {
		r.Report(err)
	}
}

// Package journal keeps a local catalogue of logging sessions.
//
// The session files on the medium hold the data; the journal, stored in a
// BoltDB file on the host's own storage, records when each session started
// and ended, why it ended and how much it wrote. Sessions still open when
// the process starts were cut short by a reset and are closed as such.
//
//	j, err := journal.Open(journal.Config{DBPath: "/var/lib/sdlogger/state.db"}, log)
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//	_ = j.Begin(6, "data_6.csv", journal.CausePress)
package journal

import "time"

// EndReason records why a session ended.
type EndReason string

// End reasons.
const (
	EndStopped  EndReason = "stopped"
	EndRollover EndReason = "rollover"
	EndShutdown EndReason = "shutdown"
	EndReset    EndReason = "reset"
)

// Cause records why a session started.
type Cause string

// Start causes.
const (
	CausePress    Cause = "press"
	CauseRollover Cause = "rollover"
)

// Entry is the journal record of one session.
type Entry struct {
	// Index is the session index.
	Index uint32 `json:"index"`

	// File is the session file name on the medium.
	File string `json:"file"`

	// Cause is why the session started.
	Cause Cause `json:"cause"`

	// StartedAt is when the session started.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the session ended; zero while open.
	EndedAt time.Time `json:"ended_at,omitempty"`

	// EndReason is why the session ended; empty while open.
	EndReason EndReason `json:"end_reason,omitempty"`

	// Records is the number of records written, as of the last checkpoint.
	Records uint64 `json:"records"`

	// Bytes is the number of bytes written, as of the last checkpoint.
	Bytes int64 `json:"bytes"`

	// UpdatedAt is the time of the last checkpoint.
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the session has not ended.
func (e *Entry) Open() bool {
	return e.EndReason == ""
}

// Journal records session lifecycles.
type Journal interface {
	// Begin opens an entry for session index. An existing entry for the
	// same index is replaced.
	Begin(index uint32, file string, cause Cause) error

	// Checkpoint updates the write counters of an open session.
	//
	// Returns ErrNotFound if no entry exists and ErrClosed if the session
	// already ended.
	Checkpoint(index uint32, records uint64, bytes int64) error

	// End closes session index with reason and final counters.
	End(index uint32, reason EndReason, records uint64, bytes int64) error

	// Get returns the entry for index, or ErrNotFound.
	Get(index uint32) (*Entry, error)

	// List returns every entry ordered by index.
	List() ([]*Entry, error)

	// Boots returns how many times the journal has been opened.
	Boots() (uint64, error)

	// Close releases the database.
	Close() error
}

// Config contains journal configuration.
type Config struct {
	// DBPath is the BoltDB file path.
	DBPath string

	// Timeout bounds waiting for the database file lock (default: 1 second).
	Timeout time.Duration

	// ReadOnly opens the database without write access, for inspection
	// while the daemon holds it.
	ReadOnly bool
}

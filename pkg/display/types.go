// Package display provides output formatting for the sdlogger CLI.
//
// It renders controller status, journal sessions, session files found on
// the medium and per-file summaries as tables, JSON or simple text.
package display

import (
	"io"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

// Format represents an output format.
type Format string

const (
	// FormatAuto selects FormatTable on a terminal and FormatSimple otherwise.
	FormatAuto Format = "auto"

	// FormatTable displays data in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data in simple text format, one line per item.
	FormatSimple Format = "simple"
)

// Formatter formats CLI output.
type Formatter interface {
	// FormatStatus formats a controller status snapshot.
	FormatStatus(w io.Writer, st controller.Status) error

	// FormatSessions formats journal entries.
	FormatSessions(w io.Writer, entries []*journal.Entry) error

	// FormatFiles formats session files found on the medium.
	FormatFiles(w io.Writer, files []sessionlog.File) error

	// FormatSummary formats the summary of one session file.
	//
	// Parameters:
	//   - w: Output writer
	//   - name: File name shown in the header
	//   - s: Summary to format
	FormatSummary(w io.Writer, name string, s summary.Summary) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowPercentiles enables percentile columns in summaries.
	ShowPercentiles bool

	// ShowTimestamps enables timestamp columns.
	// Default: true.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}

package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatStatus implements Formatter.FormatStatus.
func (f *simpleFormatter) FormatStatus(w io.Writer, st controller.Status) error {
	_, err := fmt.Fprintf(w, "State: %s | Index: %d | Cycle: %d | Offset: %d | Medium: %s | Records: %s\n",
		st.State,
		st.SessionIndex,
		st.Cycle,
		st.WriteOffset,
		st.Medium,
		formatNumber(int64(st.TotalRecords)))
	return err
}

// FormatSessions implements Formatter.FormatSessions.
func (f *simpleFormatter) FormatSessions(w io.Writer, entries []*journal.Entry) error {
	for _, e := range entries {
		reason := string(e.EndReason)
		if e.Open() {
			reason = "open"
		}
		if _, err := fmt.Fprintf(w, "#%d: %s (%s, %s) - %s records, %s\n",
			e.Index,
			e.File,
			e.Cause,
			reason,
			formatNumber(int64(e.Records)),
			formatBytes(e.Bytes)); err != nil {
			return err
		}
	}

	return nil
}

// FormatFiles implements Formatter.FormatFiles.
func (f *simpleFormatter) FormatFiles(w io.Writer, files []sessionlog.File) error {
	for _, file := range files {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\n", file.Name, file.Index, file.Size); err != nil {
			return err
		}
	}

	return nil
}

// FormatSummary implements Formatter.FormatSummary.
func (f *simpleFormatter) FormatSummary(w io.Writer, name string, s summary.Summary) error {
	if _, err := fmt.Fprintf(w, "%s: %d records over %v (%d restarts, %d skipped)\n",
		name, s.Records, s.Span, s.Restarts, s.Skipped); err != nil {
		return err
	}

	for _, field := range summary.Fields {
		st, ok := s.Fields[field]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s: min %s max %s avg %s\n",
			field,
			formatFloat(st.Min, 3),
			formatFloat(st.Max, 3),
			formatFloat(st.Avg, 3)); err != nil {
			return err
		}
	}

	return nil
}

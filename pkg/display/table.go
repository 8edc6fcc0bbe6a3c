package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatStatus implements Formatter.FormatStatus.
func (f *tableFormatter) FormatStatus(w io.Writer, st controller.Status) error {
	if err := writeHeader(w, "Logger Status", f.config.Compact); err != nil {
		return err
	}

	file := st.File
	if file == "" {
		file = "-"
	}

	rows := [][]string{
		{"State", st.State.String()},
		{"Session Index", fmt.Sprintf("%d", st.SessionIndex)},
		{"File", file},
		{"Cycle", formatNumber(int64(st.Cycle))},
		{"Write Offset", formatBytes(st.WriteOffset)},
		{"Session Records", formatNumber(int64(st.SessionRecords))},
		{"Total Records", formatNumber(int64(st.TotalRecords))},
		{"Medium", st.Medium},
		{"Reinits", formatNumber(int64(st.Reinits))},
		{"Cursor Loaded", fmt.Sprintf("%t", st.CursorLoaded)},
	}

	if st.PendingPresses > 0 {
		rows = append(rows, []string{"Pending Presses", fmt.Sprintf("%d", st.PendingPresses)})
	}

	if f.config.ShowTimestamps {
		rows = append(rows,
			[]string{"Session Start", formatTime(st.SessionStart)},
			[]string{"Last Write", formatTime(st.LastWrite)},
		)
	}

	if st.LastError != "" {
		rows = append(rows, []string{"Last Error", st.LastError})
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatSessions implements Formatter.FormatSessions.
func (f *tableFormatter) FormatSessions(w io.Writer, entries []*journal.Entry) error {
	if err := writeHeader(w, "Sessions", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Index", "File", "Cause", "End", "Records", "Bytes"}
	if f.config.ShowTimestamps {
		header = append(header, "Started", "Ended")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		reason := string(e.EndReason)
		if e.Open() {
			reason = "open"
		}
		row := []string{
			fmt.Sprintf("%d", e.Index),
			e.File,
			string(e.Cause),
			reason,
			formatNumber(int64(e.Records)),
			formatBytes(e.Bytes),
		}
		if f.config.ShowTimestamps {
			row = append(row, formatTime(e.StartedAt), formatTime(e.EndedAt))
		}
		rows = append(rows, row)
	}

	return f.writeTable(w, header, rows)
}

// FormatFiles implements Formatter.FormatFiles.
func (f *tableFormatter) FormatFiles(w io.Writer, files []sessionlog.File) error {
	if err := writeHeader(w, "Session Files", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Index", "Name", "Size"}
	if f.config.ShowTimestamps {
		header = append(header, "Modified")
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		row := []string{
			fmt.Sprintf("%d", file.Index),
			file.Name,
			formatBytes(file.Size),
		}
		if f.config.ShowTimestamps {
			row = append(row, formatTime(file.ModTime))
		}
		rows = append(rows, row)
	}

	return f.writeTable(w, header, rows)
}

// FormatSummary implements Formatter.FormatSummary.
func (f *tableFormatter) FormatSummary(w io.Writer, name string, s summary.Summary) error {
	if err := writeHeader(w, "Summary: "+name, f.config.Compact); err != nil {
		return err
	}

	overview := [][]string{
		{"Records", formatNumber(int64(s.Records))},
		{"Span", s.Span.String()},
		{"Restarts", fmt.Sprintf("%d", s.Restarts)},
		{"Skipped Lines", fmt.Sprintf("%d", s.Skipped)},
	}
	if err := f.writeTable(w, []string{"Metric", "Value"}, overview); err != nil {
		return err
	}
	if s.Records == 0 {
		return nil
	}

	header := []string{"Field", "Min", "Max", "Avg"}
	if f.config.ShowPercentiles {
		header = append(header, "P50", "P95")
	}

	rows := make([][]string, 0, len(summary.Fields))
	for _, field := range summary.Fields {
		st, ok := s.Fields[field]
		if !ok {
			continue
		}
		row := []string{
			string(field),
			formatFloat(st.Min, 3),
			formatFloat(st.Max, 3),
			formatFloat(st.Avg, 3),
		}
		if f.config.ShowPercentiles {
			row = append(row, formatFloat(st.P50, 3), formatFloat(st.P95, 3))
		}
		rows = append(rows, row)
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
	}

	_, err := fmt.Fprintln(w, b.String())
	return err
}

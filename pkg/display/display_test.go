package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

func sampleStatus() controller.Status {
	return controller.Status{
		State:          controller.Logging,
		LoggingEnabled: true,
		CursorLoaded:   true,
		SessionIndex:   6,
		File:           "data_6.csv",
		Cycle:          1201,
		WriteOffset:    68400,
		SessionRecords: 1200,
		TotalRecords:   15000,
		Medium:         "inserted",
		Reinits:        1,
		SessionStart:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleEntries() []*journal.Entry {
	return []*journal.Entry{
		{
			Index:     5,
			File:      "data_5.csv",
			Cause:     journal.CausePress,
			StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			EndedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			EndReason: journal.EndStopped,
			Records:   1800,
			Bytes:     102600,
		},
		{
			Index:     6,
			File:      "data_6.csv",
			Cause:     journal.CauseRollover,
			StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Records:   1200,
			Bytes:     68400,
		},
	}
}

func sampleSummary() summary.Summary {
	return summary.Summary{
		Records:        3,
		FirstElapsedMs: 1000,
		LastElapsedMs:  3000,
		Span:           2 * time.Second,
		Fields: map[summary.Field]summary.Stats{
			summary.Temperature: {Min: 20.5, Max: 22.5, Avg: 21.5, P50: 21.5, P95: 22.4},
			summary.Battery:     {Min: 3.9, Max: 3.912, Avg: 3.905},
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{
			name:   "default format (table)",
			config: Config{},
			want:   "*display.tableFormatter",
		},
		{
			name:   "table format",
			config: Config{Format: FormatTable},
			want:   "*display.tableFormatter",
		},
		{
			name:   "json format",
			config: Config{Format: FormatJSON},
			want:   "*display.jsonFormatter",
		},
		{
			name:   "simple format",
			config: Config{Format: FormatSimple},
			want:   "*display.simpleFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatter := New(tt.config)
			if formatter == nil {
				t.Fatal("New() returned nil")
			}

			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	// A regular file is never a terminal.
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if got := Resolve(FormatAuto, f); got != FormatSimple {
		t.Errorf("Resolve(auto, file) = %v, want simple", got)
	}
	if got := Resolve(FormatJSON, f); got != FormatJSON {
		t.Errorf("Resolve(json, file) = %v, want json", got)
	}
	if got := Resolve(FormatAuto, nil); got != FormatSimple {
		t.Errorf("Resolve(auto, nil) = %v, want simple", got)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"auto", "table", "json", "simple"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if f, err := ParseFormat(""); err != nil || f != FormatAuto {
		t.Errorf("ParseFormat(\"\") = %v, %v, want auto", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestTableFormatter_FormatStatus(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, ShowTimestamps: true})

	var buf bytes.Buffer
	if err := formatter.FormatStatus(&buf, sampleStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Logger Status", "logging", "data_6.csv", "1,201", "66.8 KiB", "15,000", "inserted", "Session Start"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Last Error") {
		t.Error("Last Error row shown without an error")
	}
}

func TestTableFormatter_FormatSessions(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable})

	var buf bytes.Buffer
	if err := formatter.FormatSessions(&buf, sampleEntries()); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Sessions", "data_5.csv", "stopped", "rollover", "open", "1,800"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Started") {
		t.Error("timestamps shown without ShowTimestamps")
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, Compact: true})

	var buf bytes.Buffer
	if err := formatter.FormatFiles(&buf, nil); err != nil {
		t.Fatalf("FormatFiles() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No data") {
		t.Errorf("output = %q, want No data", buf.String())
	}
}

func TestTableFormatter_FormatSummary(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, ShowPercentiles: true})

	var buf bytes.Buffer
	if err := formatter.FormatSummary(&buf, "data_6.csv", sampleSummary()); err != nil {
		t.Fatalf("FormatSummary() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Summary: data_6.csv", "2s", "temperature_c", "20.500", "22.400", "battery_v", "P95"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	// Fields are listed in file order.
	if strings.Index(output, "temperature_c") > strings.Index(output, "battery_v") {
		t.Error("fields out of order")
	}
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatJSON, Compact: true})

	var buf bytes.Buffer
	if err := formatter.FormatStatus(&buf, sampleStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	var st controller.Status
	if err := json.Unmarshal(buf.Bytes(), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if st.State != controller.Logging || st.SessionIndex != 6 {
		t.Errorf("decoded status = %+v", st)
	}

	buf.Reset()
	if err := formatter.FormatSessions(&buf, nil); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty sessions = %q, want []", buf.String())
	}

	buf.Reset()
	files := []sessionlog.File{{Index: 2, Name: "data_2.csv", Path: "/sd/data_2.csv", Size: 57}}
	if err := formatter.FormatFiles(&buf, files); err != nil {
		t.Fatalf("FormatFiles() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"name":"data_2.csv"`) {
		t.Errorf("files JSON = %s", buf.String())
	}

	buf.Reset()
	if err := formatter.FormatSummary(&buf, "data_6.csv", sampleSummary()); err != nil {
		t.Fatalf("FormatSummary() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"temperature_c"`) || !strings.Contains(buf.String(), `"file":"data_6.csv"`) {
		t.Errorf("summary JSON = %s", buf.String())
	}
}

func TestSimpleFormatter(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatSimple})

	var buf bytes.Buffer
	if err := formatter.FormatStatus(&buf, sampleStatus()); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}
	if !strings.Contains(buf.String(), "State: logging | Index: 6") {
		t.Errorf("status = %q", buf.String())
	}

	buf.Reset()
	if err := formatter.FormatSessions(&buf, sampleEntries()); err != nil {
		t.Fatalf("FormatSessions() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "#6: data_6.csv (rollover, open)") {
		t.Errorf("line = %q", lines[1])
	}

	buf.Reset()
	if err := formatter.FormatSummary(&buf, "data_6.csv", sampleSummary()); err != nil {
		t.Fatalf("FormatSummary() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "data_6.csv: 3 records over 2s") {
		t.Errorf("summary = %q", buf.String())
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.input); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{68400, "66.8 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

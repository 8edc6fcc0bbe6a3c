package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWriterLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		present []string
		absent  []string
	}{
		{
			name:    "debug shows everything",
			level:   "debug",
			present: []string{"probe", "session started", "medium removed", "write failed"},
		},
		{
			name:    "warn filters debug and info",
			level:   "warn",
			present: []string{"medium removed", "write failed"},
			absent:  []string{"probe", "session started"},
		},
		{
			name:    "unknown level behaves as info",
			level:   "verbose",
			present: []string{"session started"},
			absent:  []string{"probe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWriter(&buf, Config{Level: tt.level, Format: "text"})

			log.Debug("probe")
			log.Info("session started")
			log.Warn("medium removed")
			log.Error("write failed")

			out := buf.String()
			for _, s := range tt.present {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, Config{Level: "info", Format: "text"}).With("component", "cursor")

	log.Info("index persisted", "index", 6)

	out := buf.String()
	if !strings.Contains(out, "component=cursor") {
		t.Errorf("With() field missing: %s", out)
	}
	if !strings.Contains(out, "index=6") {
		t.Errorf("call field missing: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, Config{Level: "info", Format: "JSON"})

	log.Info("record appended", "file", "data_3.csv", "bytes", 61)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "record appended" {
		t.Errorf("msg = %v, want record appended", entry["msg"])
	}
	if entry["file"] != "data_3.csv" {
		t.Errorf("file = %v, want data_3.csv", entry["file"])
	}
	if entry["bytes"] != float64(61) {
		t.Errorf("bytes = %v, want 61", entry["bytes"])
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdlogger.log")

	log := New(Config{Level: "info", Output: path, Format: "text"})
	log.Info("first")
	log.Info("second")

	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Errorf("log file content = %q", data)
	}
}

func TestNewUnwritableOutputFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "x.log")

	log := New(Config{Level: "info", Output: path})
	if log == nil {
		t.Fatal("New() returned nil")
	}
	log.Info("still logging")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"WaRn", "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level).String(); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestOpenOutput(t *testing.T) {
	for _, out := range []string{"stdout", "STDERR", ""} {
		w, err := openOutput(out)
		if err != nil {
			t.Errorf("openOutput(%q) error = %v", out, err)
		}
		if w == nil {
			t.Errorf("openOutput(%q) returned nil writer", out)
		}
	}
}

func TestNoop(t *testing.T) {
	log := Noop()
	log.Debug("debug")
	log.With("k", "v").Error("error")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/sdlogger/pkg/config"
	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/report"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// testEnv isolates a test from SDLOGGER_* variables and writes a config
// file pointing the mount and journal into a temp dir.
func testEnv(t *testing.T, extra string) (configPath, mount string) {
	t.Helper()
	for _, key := range []string{config.EnvConfig, config.EnvMount, config.EnvStateDB, config.EnvLogLevel, config.EnvDriver} {
		t.Setenv(key, "")
	}
	_ = os.Unsetenv(config.EnvHTTP) // nolint:errcheck

	dir := t.TempDir()
	mount = filepath.Join(dir, "sd")
	if err := os.MkdirAll(mount, 0o755); err != nil {
		t.Fatalf("failed to create mount: %v", err)
	}

	content := fmt.Sprintf(`medium:
  mount_path: %s
storage:
  state_db: %s
logging:
  level: error
%s`, mount, filepath.Join(dir, "state.db"), extra)

	configPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath, mount
}

// writeSession writes n records to the session file for index.
func writeSession(t *testing.T, mount string, index uint32, n int) {
	t.Helper()
	var buf bytes.Buffer
	for i := 1; i <= n; i++ {
		buf.Write(sessionlog.Format(sessionlog.Record{
			ElapsedMs:   int64(i) * 1000,
			AccelZ:      1000,
			Humidity:    45,
			Pressure:    101325,
			Temperature: 20 + float64(i),
			Light:       250,
			Battery:     4.1,
		}))
	}
	path := filepath.Join(mount, fmt.Sprintf(sessionlog.DefaultPattern, index))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}
}

// TestParseRunFlags tests run command flag parsing.
func TestParseRunFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCmd   runCommand
		wantError bool
	}{
		{
			name:    "default flags",
			args:    []string{},
			wantCmd: runCommand{configPath: "/test/config.yaml"},
		},
		{
			name: "mount and driver",
			args: []string{"-mount", "/tmp/sd", "-driver", "periph"},
			wantCmd: runCommand{
				configPath: "/test/config.yaml",
				mount:      "/tmp/sd",
				driver:     "periph",
			},
		},
		{
			name: "listen",
			args: []string{"-listen", "127.0.0.1:8080"},
			wantCmd: runCommand{
				configPath: "/test/config.yaml",
				listen:     "127.0.0.1:8080",
			},
		},
		{
			name:      "unknown flag",
			args:      []string{"-period", "1s"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRunFlags("/test/config.yaml", tt.args, flag.ContinueOnError)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.wantCmd {
				t.Errorf("command = %+v, want %+v", *got, tt.wantCmd)
			}
		})
	}
}

// TestRunCommandLoadConfig tests that run flags override the config file.
func TestRunCommandLoadConfig(t *testing.T) {
	configPath, _ := testEnv(t, "http:\n  listen: \":9000\"\n")

	cmd := &runCommand{configPath: configPath, mount: "/mnt/other", driver: "PERIPH", listen: "off"}
	cfg, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Medium.MountPath != "/mnt/other" {
		t.Errorf("MountPath = %q, want /mnt/other", cfg.Medium.MountPath)
	}
	if cfg.Hardware.Driver != config.DriverPeriph {
		t.Errorf("Driver = %q, want periph", cfg.Hardware.Driver)
	}
	if cfg.HTTP.Listen != "" {
		t.Errorf("Listen = %q, want disabled", cfg.HTTP.Listen)
	}

	cmd = &runCommand{configPath: configPath, driver: "gpiod"}
	if _, err := cmd.loadConfig(); !errors.Is(err, config.ErrInvalidDriver) {
		t.Errorf("loadConfig() error = %v, want ErrInvalidDriver", err)
	}
}

// TestDaemonURL tests listen address to URL conversion.
func TestDaemonURL(t *testing.T) {
	tests := []struct {
		listen  string
		want    string
		wantErr bool
	}{
		{":8080", "http://127.0.0.1:8080", false},
		{"0.0.0.0:8080", "http://127.0.0.1:8080", false},
		{"[::]:8080", "http://127.0.0.1:8080", false},
		{"192.168.1.5:80", "http://192.168.1.5:80", false},
		{"", "", true},
		{"localhost", "", true},
	}

	for _, tt := range tests {
		got, err := daemonURL(tt.listen)
		if tt.wantErr {
			if err == nil {
				t.Errorf("daemonURL(%q) expected error", tt.listen)
			}
			continue
		}
		if err != nil {
			t.Errorf("daemonURL(%q) error = %v", tt.listen, err)
			continue
		}
		if got != tt.want {
			t.Errorf("daemonURL(%q) = %q, want %q", tt.listen, got, tt.want)
		}
	}
}

// TestFilesCommand tests listing session files on the medium.
func TestFilesCommand(t *testing.T) {
	configPath, mount := testEnv(t, "")
	writeSession(t, mount, 2, 3)
	writeSession(t, mount, 1, 1)
	if err := os.WriteFile(filepath.Join(mount, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &filesCommand{configPath: configPath, format: "simple", out: &out}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "data_1.csv\t1\t") || !strings.HasPrefix(lines[1], "data_2.csv\t2\t") {
		t.Errorf("unexpected listing:\n%s", out.String())
	}
}

// TestInspectCommand tests summarizing a session file by index and by path.
func TestInspectCommand(t *testing.T) {
	configPath, mount := testEnv(t, "")
	writeSession(t, mount, 6, 4)

	var out bytes.Buffer
	cmd := &inspectCommand{configPath: configPath, target: "6", format: "json", out: &out}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got struct {
		File    string `json:"file"`
		Summary struct {
			Records int `json:"records"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if got.File != "data_6.csv" || got.Summary.Records != 4 {
		t.Errorf("summary = %+v", got)
	}

	out.Reset()
	cmd = &inspectCommand{configPath: configPath, target: filepath.Join(mount, "data_6.csv"), format: "simple", out: &out}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "data_6.csv: 4 records") {
		t.Errorf("output = %q", out.String())
	}

	cmd = &inspectCommand{configPath: configPath, target: "99", format: "simple", out: &out}
	if err := cmd.Execute(); err == nil {
		t.Error("missing session file should fail")
	}
}

// TestCursorCommand tests cursor show and set.
func TestCursorCommand(t *testing.T) {
	configPath, mount := testEnv(t, "")

	var out bytes.Buffer
	cmd := &cursorCommand{configPath: configPath, out: &out}

	if err := cmd.Execute([]string{"show"}); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Session index: 0 (") {
		t.Errorf("show without cursor = %q", out.String())
	}

	out.Reset()
	if err := cmd.Execute([]string{"set", "41"}); err != nil {
		t.Fatalf("set error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(mount, "index.xdk"))
	if err != nil {
		t.Fatalf("cursor file missing: %v", err)
	}
	if string(data) != "41\r\n" {
		t.Errorf("cursor content = %q, want 41\\r\\n", data)
	}

	out.Reset()
	if err := cmd.Execute([]string{"show"}); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(out.String(), "Session index: 41") || !strings.Contains(out.String(), "data_42.csv") {
		t.Errorf("show = %q", out.String())
	}

	if err := cmd.Execute([]string{"set", "-1"}); err == nil {
		t.Error("negative index should fail")
	}
	if err := cmd.Execute([]string{"bogus"}); err == nil {
		t.Error("unknown subcommand should fail")
	}
}

// TestStatusCommand tests fetching status from a running daemon.
func TestStatusCommand(t *testing.T) {
	configPath, _ := testEnv(t, "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(controller.Status{
			State:        controller.Logging,
			SessionIndex: 7,
			Cycle:        3,
			Medium:       "inserted",
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := &statusCommand{
		configPath: configPath,
		addr:       strings.TrimPrefix(srv.URL, "http://"),
		format:     "simple",
		out:        &out,
	}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "State: logging | Index: 7 | Cycle: 3") {
		t.Errorf("output = %q", out.String())
	}

	cmd = &statusCommand{configPath: configPath, format: "simple", out: &out}
	if err := cmd.Execute(); !errors.Is(err, errHTTPDisabled) {
		t.Errorf("Execute() error = %v, want errHTTPDisabled", err)
	}
}

// TestSessionsCommand tests reading the journal file directly.
func TestSessionsCommand(t *testing.T) {
	configPath, _ := testEnv(t, "")
	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}

	j, err := journal.Open(journal.Config{DBPath: cfg.Storage.StateDB}, logger.Noop())
	if err != nil {
		t.Fatalf("journal.Open() error = %v", err)
	}
	if err := j.Begin(3, "data_3.csv", journal.CausePress); err != nil {
		t.Fatal(err)
	}
	if err := j.End(3, journal.EndRollover, 65535, 3735000); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &sessionsCommand{configPath: configPath, format: "simple", out: &out}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "#3: data_3.csv (press, rollover)") {
		t.Errorf("output = %q", out.String())
	}
}

// TestDaemonLogsToMedium runs the simulated daemon end to end: boot
// reserves index 1, a press starts session 1, and shutdown closes it.
func TestDaemonLogsToMedium(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping daemon run in short mode")
	}

	configPath, mount := testEnv(t, "sampler:\n  period: 10ms\n  idle_interval: 10ms\n")
	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}

	d, err := newDaemon(cfg, logger.Noop(), report.New(logger.Noop()))
	if err != nil {
		t.Fatalf("newDaemon() error = %v", err)
	}
	defer d.close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.run(ctx) }()

	waitFor(t, func() bool { return d.ctl.Status().CursorLoaded })
	d.ctl.Press()

	dataFile := filepath.Join(mount, "data_1.csv")
	waitFor(t, func() bool {
		info, err := os.Stat(dataFile)
		return err == nil && info.Size() > 0
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	cursorData, err := os.ReadFile(filepath.Join(mount, "index.xdk"))
	if err != nil {
		t.Fatalf("cursor file missing: %v", err)
	}
	if string(cursorData) != "1\r\n" {
		t.Errorf("cursor = %q, want 1\\r\\n", cursorData)
	}

	entry, err := d.journal.Get(1)
	if err != nil {
		t.Fatalf("journal entry missing: %v", err)
	}
	if entry.EndReason != journal.EndShutdown {
		t.Errorf("EndReason = %q, want shutdown", entry.EndReason)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

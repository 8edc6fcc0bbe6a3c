package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/0xmhha/sdlogger/pkg/config"
	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/cursor"
	"github.com/0xmhha/sdlogger/pkg/display"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

// errHTTPDisabled is returned when a command needs the daemon's HTTP
// surface but none is configured.
var errHTTPDisabled = errors.New("daemon HTTP address not configured (set http.listen or use -addr)")

// httpTimeout bounds every request to the daemon.
const httpTimeout = 3 * time.Second

// statusCommand shows the status of a running daemon.
type statusCommand struct {
	configPath string
	addr       string
	format     string
	compact    bool
	out        io.Writer
}

// Execute runs the status command.
func (c *statusCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	addr := c.addr
	if addr == "" {
		addr = cfg.HTTP.Listen
	}
	base, err := daemonURL(addr)
	if err != nil {
		return err
	}

	var st controller.Status
	if err := getJSON(base+"/status", &st); err != nil {
		return err
	}

	formatter, err := newFormatter(c.format, c.compact, false, c.out)
	if err != nil {
		return err
	}
	return formatter.FormatStatus(c.out, st)
}

// sessionsCommand lists the sessions recorded in the journal.
type sessionsCommand struct {
	configPath string
	dbPath     string
	format     string
	compact    bool
	out        io.Writer
}

// Execute runs the sessions command.
func (c *sessionsCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	entries, err := c.collect(cfg)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c.format, c.compact, true, c.out)
	if err != nil {
		return err
	}
	return formatter.FormatSessions(c.out, entries)
}

// collect reads the journal file directly. While the daemon holds the
// database lock, it asks the daemon instead.
func (c *sessionsCommand) collect(cfg *config.Config) ([]*journal.Entry, error) {
	dbPath := c.dbPath
	if dbPath == "" {
		dbPath = cfg.Storage.StateDB
	}

	j, err := journal.Open(journal.Config{
		DBPath:   dbPath,
		ReadOnly: true,
		Timeout:  500 * time.Millisecond,
	}, newLogger(cfg))
	if err == nil {
		defer j.Close()
		return j.List()
	}

	base, urlErr := daemonURL(cfg.HTTP.Listen)
	if urlErr != nil {
		return nil, err
	}

	var entries []*journal.Entry
	if getErr := getJSON(base+"/sessions", &entries); getErr != nil {
		return nil, fmt.Errorf("%w (daemon: %v)", err, getErr)
	}
	return entries, nil
}

// filesCommand lists session files on the medium.
type filesCommand struct {
	configPath string
	mount      string
	format     string
	compact    bool
	out        io.Writer
}

// Execute runs the files command.
func (c *filesCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	mount := c.mount
	if mount == "" {
		mount = cfg.Medium.MountPath
	}

	files, err := sessionlog.Discover(mount, cfg.Session.FilePattern, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("failed to list session files: %w", err)
	}

	formatter, err := newFormatter(c.format, c.compact, true, c.out)
	if err != nil {
		return err
	}
	return formatter.FormatFiles(c.out, files)
}

// inspectCommand summarizes one session file.
type inspectCommand struct {
	configPath  string
	mount       string
	target      string
	percentiles bool
	format      string
	out         io.Writer
}

// Execute runs the inspect command.
func (c *inspectCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	if _, err := display.ParseFormat(c.format); err != nil {
		return err
	}

	path := c.resolvePath(cfg)
	s, err := summary.File(path, summary.Config{TrackPercentiles: c.percentiles})
	if err != nil {
		return fmt.Errorf("failed to summarize %s: %w", path, err)
	}

	formatter := display.New(display.Config{
		Format:          resolveFormat(c.format, c.out),
		ShowPercentiles: c.percentiles,
	})
	return formatter.FormatSummary(c.out, filepath.Base(path), s)
}

// resolvePath maps a bare session index to its file on the medium. Any
// other target is taken as a path.
func (c *inspectCommand) resolvePath(cfg *config.Config) string {
	index, err := strconv.ParseUint(c.target, 10, 32)
	if err != nil {
		return c.target
	}

	mount := c.mount
	if mount == "" {
		mount = cfg.Medium.MountPath
	}
	return filepath.Join(mount, fmt.Sprintf(cfg.Session.FilePattern, index))
}

// cursorCommand inspects and edits the persisted session index.
type cursorCommand struct {
	configPath string
	out        io.Writer
}

// Execute runs the cursor command with given arguments.
func (c *cursorCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "show":
		return c.runShow(args[1:])
	case "set":
		return c.runSet(args[1:])
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown cursor subcommand: %s", args[0])
	}
}

// runShow prints the persisted index.
func (c *cursorCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("cursor show", flag.ContinueOnError)
	mount := fs.String("mount", "", "medium mount path (default: from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, store, err := c.open(*mount)
	if err != nil {
		return err
	}

	index, err := store.ReadIndex()
	switch {
	case cursor.Defaulted(err):
		fmt.Fprintf(c.out, "Session index: 0 (%v)\n", err)
	case err != nil:
		return fmt.Errorf("failed to read cursor: %w", err)
	default:
		fmt.Fprintf(c.out, "Session index: %d\n", index)
	}

	// The daemon reserves index+1 at boot and starts its next session there.
	fmt.Fprintf(c.out, "Next session file: %s\n", fmt.Sprintf(cfg.Session.FilePattern, index+1))
	return nil
}

// runSet replaces the persisted index.
func (c *cursorCommand) runSet(args []string) error {
	fs := flag.NewFlagSet("cursor set", flag.ContinueOnError)
	mount := fs.String("mount", "", "medium mount path (default: from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: sdlogger cursor set [-mount path] <index>")
	}

	index, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", fs.Arg(0), err)
	}

	_, store, err := c.open(*mount)
	if err != nil {
		return err
	}

	if err := store.WriteIndex(uint32(index)); err != nil {
		return fmt.Errorf("failed to write cursor: %w", err)
	}

	fmt.Fprintf(c.out, "Session index set to %d\n", index)
	return nil
}

func (c *cursorCommand) open(mount string) (*config.Config, cursor.Store, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if mount == "" {
		mount = cfg.Medium.MountPath
	}

	store := cursor.NewFileStore(cursor.Config{
		Dir:      mount,
		FileName: cfg.Session.CursorFile,
	}, newLogger(cfg))
	return cfg, store, nil
}

// showHelp displays help for cursor command.
func (c *cursorCommand) showHelp() error {
	help := `Cursor - persisted session index

Usage:
  sdlogger cursor <subcommand> [flags]

Subcommands:
  show      Print the index stored on the medium
  set       Replace the stored index

Flags:
  -mount    Medium mount path (default: from config)

Examples:
  sdlogger cursor show -mount /media/sd
  sdlogger cursor set 100
`
	fmt.Fprint(c.out, help)
	return nil
}

// loadConfig loads configuration from configPath or the default locations.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveFormat parses a format name, resolving "auto" against out.
// Unknown names fall back to a table.
func resolveFormat(name string, out io.Writer) display.Format {
	f, err := display.ParseFormat(name)
	if err != nil {
		return display.FormatTable
	}
	file, _ := out.(*os.File)
	return display.Resolve(f, file)
}

// newFormatter builds a formatter for the named format.
func newFormatter(name string, compact, timestamps bool, out io.Writer) (display.Formatter, error) {
	if _, err := display.ParseFormat(name); err != nil {
		return nil, err
	}
	return display.New(display.Config{
		Format:         resolveFormat(name, out),
		ShowTimestamps: timestamps,
		Compact:        compact,
	}), nil
}

// daemonURL turns a listen address into a base URL. Wildcard hosts are
// reached over loopback.
func daemonURL(listen string) (string, error) {
	if listen == "" {
		return "", errHTTPDisabled
	}

	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("invalid daemon address %q: %w", listen, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}

	return "http://" + net.JoinHostPort(host, port), nil
}

// getJSON fetches url and decodes the JSON body into v.
func getJSON(url string, v interface{}) error {
	client := &http.Client{Timeout: httpTimeout}

	resp, err := client.Get(url) // nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// Package main provides the sdlogger daemon and CLI.
//
// sdlogger samples environmental, motion and battery readings once per
// period and appends them to per-session files on a removable medium. A
// button (or SIGUSR1, or POST /toggle) starts and stops sessions; the
// session index survives resets in a cursor file on the medium.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define global flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("sdlogger %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "run":
		return runRunCommand(*configPath, args[1:])
	case "status":
		return runStatusCommand(*configPath, args[1:])
	case "sessions":
		return runSessionsCommand(*configPath, args[1:])
	case "files":
		return runFilesCommand(*configPath, args[1:])
	case "inspect":
		return runInspectCommand(*configPath, args[1:])
	case "cursor":
		return runCursorCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runRunCommand runs the logging daemon until SIGINT or SIGTERM.
func runRunCommand(configPath string, args []string) error {
	cmd, err := parseRunFlags(configPath, args, flag.ExitOnError)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.Execute(ctx)
}

// parseRunFlags parses run-specific flags.
func parseRunFlags(configPath string, args []string, handling flag.ErrorHandling) (*runCommand, error) {
	fs := flag.NewFlagSet("run", handling)
	mount := fs.String("mount", "", "medium mount path (overrides config)")
	driver := fs.String("driver", "", "hardware driver: sim or periph (overrides config)")
	listen := fs.String("listen", "", "HTTP listen address, \"off\" disables (overrides config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &runCommand{
		configPath: configPath,
		mount:      *mount,
		driver:     *driver,
		listen:     *listen,
	}, nil
}

// runStatusCommand runs the status command.
func runStatusCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := fs.String("addr", "", "daemon HTTP address (default: from config)")
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &statusCommand{
		configPath: configPath,
		addr:       *addr,
		format:     *format,
		compact:    *compact,
		out:        os.Stdout,
	}
	return cmd.Execute()
}

// runSessionsCommand runs the sessions command.
func runSessionsCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	db := fs.String("db", "", "journal database path (default: from config)")
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &sessionsCommand{
		configPath: configPath,
		dbPath:     *db,
		format:     *format,
		compact:    *compact,
		out:        os.Stdout,
	}
	return cmd.Execute()
}

// runFilesCommand runs the files command.
func runFilesCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	mount := fs.String("mount", "", "medium mount path (default: from config)")
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &filesCommand{
		configPath: configPath,
		mount:      *mount,
		format:     *format,
		compact:    *compact,
		out:        os.Stdout,
	}
	return cmd.Execute()
}

// runInspectCommand runs the inspect command.
func runInspectCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	mount := fs.String("mount", "", "medium mount path (default: from config)")
	percentiles := fs.Bool("percentiles", false, "include P50/P95 per field")
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: sdlogger inspect [flags] <file|index>")
	}

	cmd := &inspectCommand{
		configPath:  configPath,
		mount:       *mount,
		target:      fs.Arg(0),
		percentiles: *percentiles,
		format:      *format,
		out:         os.Stdout,
	}
	return cmd.Execute()
}

// runCursorCommand runs the cursor command.
func runCursorCommand(configPath string, args []string) error {
	cmd := &cursorCommand{
		configPath: configPath,
		out:        os.Stdout,
	}
	return cmd.Execute(args)
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `sdlogger - removable-medium sensor data logger

Usage:
  sdlogger [flags] <command> [command flags]

Commands:
  run         Run the logging daemon
  status      Show the running daemon's status (via HTTP)
  sessions    List sessions recorded in the journal
  files       List session files on the medium
  inspect     Summarize one session file
  cursor      Show or set the persisted session index (show, set)
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -mount      Medium mount path
  -driver     Hardware driver (sim, periph)
  -listen     HTTP listen address ("off" disables)

Output Flags (status, sessions, files, inspect):
  -format     Output format (auto, table, json, simple)
  -compact    Compact output

Examples:
  # Run with simulated sensors against a local directory
  sdlogger run -driver sim -mount /tmp/sd -listen 127.0.0.1:8080

  # Run on the device
  sdlogger -config /etc/sdlogger/config.yaml run -driver periph

  # Toggle logging on a running daemon
  kill -USR1 $(pidof sdlogger)
  curl -X POST http://127.0.0.1:8080/toggle

  # Inspect what was written
  sdlogger status
  sdlogger sessions -format json
  sdlogger files -mount /tmp/sd
  sdlogger inspect -percentiles 6

  # Cursor maintenance
  sdlogger cursor show
  sdlogger cursor set 100

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}

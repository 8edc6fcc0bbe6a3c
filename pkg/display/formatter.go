package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"
)

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.Format == FormatAuto {
		cfg.Format = Resolve(FormatAuto, os.Stdout)
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// Resolve turns FormatAuto into a concrete format for out: a table on an
// interactive terminal, simple lines when piped. Other formats are
// returned unchanged.
func Resolve(f Format, out *os.File) Format {
	if f != FormatAuto {
		return f
	}
	if out != nil && term.IsTerminal(int(out.Fd())) {
		return FormatTable
	}
	return FormatSimple
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatAuto, FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be auto, table, json or simple", s)
	}
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if n < 1000 {
		return s
	}

	result := ""
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// formatFloat formats a float with specified precision.
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// formatBytes formats a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatTime formats a timestamp, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	separator := ""
	for i := 0; i < len(title); i++ {
		separator += "="
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, separator)
	return err
}

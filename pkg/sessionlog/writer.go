package sessionlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

type fileWriter struct {
	cfg    Config
	logger logger.Logger
}

// NewWriter creates a Writer for session files in cfg.Dir.
//
// Returns ErrInvalidPattern if cfg.Pattern does not contain exactly one %d.
func NewWriter(cfg Config, log logger.Logger) (Writer, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if err := ValidatePattern(cfg.Pattern); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}
	return &fileWriter{cfg: cfg, logger: log.With("component", "sessionlog")}, nil
}

// ValidatePattern checks that pattern holds exactly one %d verb and no
// path separators.
func ValidatePattern(pattern string) error {
	if strings.Count(pattern, "%d") != 1 || strings.Count(pattern, "%") != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if strings.ContainsAny(pattern, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidPattern, pattern)
	}
	return nil
}

func (w *fileWriter) FileName(index uint32) string {
	return fmt.Sprintf(w.cfg.Pattern, index)
}

func (w *fileWriter) path(index uint32) string {
	return filepath.Join(w.cfg.Dir, w.FileName(index))
}

func (w *fileWriter) Append(index uint32, line []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, ErrInvalidOffset
	}
	if len(line) == 0 {
		return 0, ErrEmptyRecord
	}

	path := w.path(index)
	// #nosec G304: path is built from the configured medium root
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644) // nolint:gosec
	if err != nil {
		return 0, fmt.Errorf("failed to open session file %s: %w", path, err)
	}

	n, err := f.WriteAt(line, offset)
	if err == nil && w.cfg.Sync {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write session file %s at %d: %w", path, offset, err)
	}
	if n < len(line) {
		return n, fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(line))
	}

	w.logger.Debug("record appended", "file", filepath.Base(path), "offset", offset, "bytes", n)
	return n, nil
}

func (w *fileWriter) Size(index uint32) (int64, error) {
	info, err := os.Stat(w.path(index))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to stat session file: %w", err)
	}
	return info.Size(), nil
}

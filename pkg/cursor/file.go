package cursor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

type fileStore struct {
	path string
	log  logger.Logger
	mu   sync.Mutex
}

// NewFileStore creates a Store backed by a file in cfg.Dir.
func NewFileStore(cfg Config, log logger.Logger) Store {
	if cfg.FileName == "" {
		cfg.FileName = DefaultFileName
	}
	if log == nil {
		log = logger.Noop()
	}
	return &fileStore{
		path: filepath.Join(cfg.Dir, cfg.FileName),
		log:  log.With("component", "cursor"),
	}
}

func (s *fileStore) ReadIndex() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304: path is built from the configured medium root
	f, err := os.Open(s.path) // nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoCursor
		}
		return 0, fmt.Errorf("failed to open cursor file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxCursorBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor file: %w", err)
	}

	index, err := Parse(data)
	if err != nil {
		s.log.Warn("cursor content rejected", "path", s.path, "content", strconv.Quote(string(data)))
		return 0, err
	}
	return index, nil
}

func (s *fileStore) WriteIndex(index uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, Format(index)); err != nil {
		return fmt.Errorf("failed to write cursor file: %w", err)
	}
	s.log.Debug("cursor persisted", "index", index)
	return nil
}

// Parse extracts the index from raw cursor content. Only the first line
// is considered; leading blanks and a trailing carriage return are
// tolerated, anything after the leading digits is ignored.
func Parse(data []byte) (uint32, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimLeft(data, " \t")
	if len(data) > 0 && data[0] == '+' {
		data = data[1:]
	}

	end := 0
	for end < len(data) && data[end] >= '0' && data[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, ErrCorruptCursor
	}

	n, err := strconv.ParseUint(string(data[:end]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptCursor, err)
	}
	return uint32(n), nil
}

// Format renders index in the on-medium representation.
func Format(index uint32) []byte {
	return []byte(strconv.FormatUint(uint64(index), 10) + "\r\n")
}

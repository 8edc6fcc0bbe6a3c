package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// Discover lists the session files in dir whose names match pattern,
// ordered by index. Files whose names only resemble the pattern
// (e.g. data_007.csv) are skipped.
func Discover(dir, pattern string, log logger.Logger) ([]File, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		index, ok := indexFromName(entry.Name(), pattern)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warn("failed to get file info", "file", entry.Name(), "error", err)
			continue
		}

		files = append(files, File{
			Index:   index,
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Index < files[j].Index })

	log.Debug("session files discovered", "dir", dir, "count", len(files))
	return files, nil
}

// indexFromName recovers the index from a file name, accepting only the
// canonical rendering of the pattern.
func indexFromName(name, pattern string) (uint32, bool) {
	var index uint32
	if n, err := fmt.Sscanf(name, pattern, &index); err != nil || n != 1 {
		return 0, false
	}
	return index, fmt.Sprintf(pattern, index) == name
}

//go:build unix

package medium

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// isMountpoint reports whether path is the root of a mounted filesystem:
// its device differs from its parent's, or it is its own parent.
func isMountpoint(path string) (bool, error) {
	var st, parent unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	if err := unix.Stat(filepath.Join(path, ".."), &parent); err != nil {
		return false, err
	}
	if st.Dev != parent.Dev {
		return true, nil
	}
	return st.Ino == parent.Ino, nil
}

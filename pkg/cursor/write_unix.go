//go:build !windows

package cursor

import "github.com/google/renameio/v2"

// writeFileAtomic replaces path with data via a synced temporary file and
// a rename, so a reset mid-write leaves either the old or the new index.
func writeFileAtomic(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pending.Cleanup() // nolint:errcheck

	if _, err := pending.Write(data); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

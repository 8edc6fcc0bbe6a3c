//go:build windows

package cursor

import "os"

func writeFileAtomic(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

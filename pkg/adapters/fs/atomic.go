package fs

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// writeFileAtomic replaces filename with data in one step: readers see either
// the old or the new content, never a partial write.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := os.Chmod(filename, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", filename, err)
	}
	return nil
}

// fileMode returns the permissions of an existing file, or fallback.
func fileMode(filename string, fallback os.FileMode) os.FileMode {
	info, err := os.Stat(filename)
	if err != nil {
		return fallback
	}
	return info.Mode().Perm()
}

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/fenced/pkg/config"
)

// ErrRootNotFound is returned by FindRoot when no indicator exists up to the
// filesystem root.
var ErrRootNotFound = errors.New("root not found")

// FindRoot looks upwards from startDir for a document root indicator:
// the system directory (e.g. ".fenced") or a ".git" directory.
// It returns the absolute path of the first directory carrying one.
func FindRoot(startDir, systemDir string) (string, error) {
	if systemDir == "" {
		systemDir = config.DefaultSystemDir
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, systemDir) || hasFile(dir, ".git") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w above %s", ErrRootNotFound, abs)
}

func hasFile(dir, name string) bool {
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return err == nil
}

// Package filex holds filesystem helpers for local client storage.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold the file at path,
// resolving relative paths against the working directory. In-memory SQLite
// names (":memory:", "file::memory:...") need no directory and are skipped.
// It returns the absolute directory, or "" when nothing was needed.
func EnsureParentDir(path string) (string, error) {
	if path == "" || strings.Contains(path, ":memory:") {
		return "", nil
	}

	abs, err := filepath.Abs(strings.TrimPrefix(path, "file:"))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

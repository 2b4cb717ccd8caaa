package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold the file at p,
// including missing parents, and returns its absolute path.
func EnsureParentDir(p string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(p))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", p, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

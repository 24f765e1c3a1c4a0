// Package filex contains small filesystem helpers shared by the blob store.
package filex

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and parents) when absent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

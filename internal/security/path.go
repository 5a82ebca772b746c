// Package security confines tool-supplied paths to the inbox directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves paths against a root directory and rejects any that
// escape it, including through symlinks.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at directory
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken from
// the root. The result must lie inside the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !within(v.root, clean) && !within(realPath(v.root), clean) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	// A symlink inside the root may still point out of it
	if real := realPath(clean); !within(realPath(v.root), real) && !within(v.root, real) {
		return "", fmt.Errorf("path resolves outside configured directory: %s", path)
	}
	return clean, nil
}

// within reports whether path is dir or below it
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// realPath follows symlinks when path exists and returns it unchanged
// otherwise.
func realPath(path string) string {
	if _, err := os.Lstat(path); err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

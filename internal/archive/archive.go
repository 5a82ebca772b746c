// Package archive moves processed order sheets out of the inbox.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxSuffix bounds the search for a free "name-N.pdf" in the archive
const maxSuffix = 10000

// Move moves src into dir and returns the new path. When dir already holds a
// file of the same name, a numeric suffix is added. Moves across devices fall
// back to copy and remove.
func Move(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	dst, err := freeName(dir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("archive %s: %w", filepath.Base(src), err)
	}
	if err := os.Remove(src); err != nil {
		return dst, fmt.Errorf("archived copy written but source not removed: %w", err)
	}
	return dst, nil
}

func freeName(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i < maxSuffix; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free archive name for %s", name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

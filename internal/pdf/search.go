package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search discovers order sheets to process
type Search struct{}

// NewSearch creates a new PDF search handler
func NewSearch() *Search {
	return &Search{}
}

// Find lists the regular files directly inside directory whose name matches
// the glob pattern. Matching is case-insensitive so "*.pdf" also finds
// "SCAN.PDF". Results are sorted by name.
func (s *Search) Find(directory, pattern string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if pattern == "" {
		pattern = "*.pdf"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	entries, err := os.ReadDir(absDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", directory)
		}
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	lowerPattern := strings.ToLower(pattern)
	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if ok, _ := filepath.Match(lowerPattern, strings.ToLower(name)); !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File vanished between ReadDir and Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, FileInfo{
			Path:         filepath.Join(absDirectory, name),
			Name:         name,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Paths returns just the absolute paths of files
func Paths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner finds raw text exports and canonical CSV files in a directory
type Scanner struct {
	rootDir string
}

// New creates a new scanner for the given root directory
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Discover lists input files directly under the root directory.
// Subdirectories are not walked; exports land in a single flat folder.
// Dotfiles are skipped. Results are absolute paths in lexicographic order.
func (s *Scanner) Discover() ([]string, error) {
	rootDir := s.expandHome(s.rootDir)

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var results []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !s.isInputFile(name) {
			continue
		}

		abs, err := filepath.Abs(filepath.Join(rootDir, name))
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		results = append(results, abs)
	}

	return results, nil
}

// isInputFile checks if file is a known input format
func (s *Scanner) isInputFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".csv"
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

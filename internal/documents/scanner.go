package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScannedFile represents a file found while scanning the data directory.
type ScannedFile struct {
	RelPath string // Relative path from the data directory root (e.g., "202401_NFs/cabecalho.csv")
	AbsPath string // Absolute file path
	Format  Format // Detected from the file extension
}

// Scanner finds candidate document files under a configured root directory.
type Scanner struct {
	root      string
	recursive bool
}

// NewScanner creates a scanner rooted at root. When recursive is false only
// files directly inside root are considered.
func NewScanner(root string, recursive bool) *Scanner {
	return &Scanner{root: root, recursive: recursive}
}

// Scan walks the data directory and returns every file found, in lexical
// path order, with its detected format. Unsupported files are included so the
// caller can report them; the scanner itself never filters by format.
func (s *Scanner) Scan(ctx context.Context) ([]ScannedFile, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s: not a directory", s.root)
	}

	var scanned []ScannedFile

	err = filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path == s.root {
				return nil
			}
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			if !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip hidden files
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		// Normalize relative path (use forward slashes for consistency)
		relPath = filepath.ToSlash(relPath)

		scanned = append(scanned, ScannedFile{
			RelPath: relPath,
			AbsPath: path,
			Format:  formatFor(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory %s: %w", s.root, err)
	}

	return scanned, nil
}

// formatFor detects the file format from the extension, case-insensitively.
func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnsupported
	}
}

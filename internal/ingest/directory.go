// Package ingest discovers invoice PDFs on disk, either by walking a
// directory once or by watching it for new files.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// ScanStats summarizes a directory walk.
type ScanStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// ScanDirectory walks root and returns every analyzable file below it in
// lexical order. Unreadable entries are counted and skipped.
func ScanDirectory(root string, skipHidden bool) ([]string, ScanStats, error) {
	var stats ScanStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			stats.Skipped++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// IsHidden reports whether the base name starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

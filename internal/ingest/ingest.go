// Package ingest discovers source documents on the local filesystem for
// batch runs. Files are fingerprinted by content hash so the same
// document dropped twice under different names is only processed once.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"contractfill/constants"
)

// Entry is one discovered document.
type Entry struct {
	Path         string
	Ext          string
	Size         int64
	HashHex      string
	Deduplicated bool   // same content already seen earlier in the scan
	Err          string // non-empty when the file could not be read
}

// Stats aggregates one directory scan.
type Stats struct {
	Scanned      int
	Matched      int
	Skipped      int
	Deduplicated int
	Failed       int
}

// AllowedExt reports whether the extension belongs to a supported format.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden reports whether a path's base name starts with '.'.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// ScanDirectory walks root and returns every supported document, in walk
// order. Hidden files and directories are skipped when skipHidden is
// set. Unreadable files are reported as failed entries rather than
// aborting the scan.
func ScanDirectory(root string, skipHidden bool, logger *slog.Logger) ([]Entry, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}

	var entries []Entry
	var stats Stats
	seen := map[string]string{} // hash hex -> first path

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			stats.Failed++
			entries = append(entries, Entry{Path: path, Err: walkErr.Error()})
			return nil
		}
		if skipHidden && IsHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++

		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			stats.Skipped++
			return nil
		}

		entry, err := stat(path, ext)
		if err != nil {
			stats.Failed++
			entry.Err = err.Error()
			entries = append(entries, entry)
			logger.Warn("ingest.scan.file_failed", "path", path, "err", err)
			return nil
		}

		if first, dup := seen[entry.HashHex]; dup {
			entry.Deduplicated = true
			stats.Deduplicated++
			logger.Debug("ingest.scan.duplicate", "path", path, "first", first)
		} else {
			seen[entry.HashHex] = path
			stats.Matched++
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	logger.Info("ingest.scan.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return entries, stats, nil
}

func stat(path, ext string) (Entry, error) {
	entry := Entry{Path: path, Ext: ext}

	f, err := os.Open(path)
	if err != nil {
		return entry, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return entry, err
	}
	entry.Size = n
	entry.HashHex = hex.EncodeToString(h.Sum(nil))
	return entry, nil
}

// Package storage writes job output to the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirArchive writes archive entries as files under a root directory. It is
// the unpacked counterpart of a zip archive: entry "folder/01.png" becomes
// <root>/folder/01.png.
type DirArchive struct {
	basePath string

	mu    sync.Mutex
	count int
}

// NewDirArchive creates basePath when missing.
func NewDirArchive(basePath string) (*DirArchive, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &DirArchive{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (d *DirArchive) BasePath() string {
	if d == nil {
		return ""
	}
	return d.basePath
}

// Append writes data at the entry's path below the root. Names that would
// escape the root are rejected.
func (d *DirArchive) Append(name string, data []byte) error {
	if d == nil {
		return errors.New("storage: no directory configured")
	}
	key, err := sanitizeKey(name)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(d.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("storage: write file: %w", err)
	}
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
	return nil
}

// Count reports the number of files written.
func (d *DirArchive) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return cleaned, nil
}

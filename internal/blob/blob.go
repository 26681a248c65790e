// internal/blob/blob.go

// Package blob stores raw uploaded log files on the local filesystem, keyed
// by sessionID/timestamp.
package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotConfigured indicates no blob directory was configured
var ErrNotConfigured = errors.New("blob storage not configured")

// Store writes blobs under a root directory
type Store struct {
	root string
}

// NewStore creates a filesystem blob store rooted at dir
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Put writes one blob. Keys use forward slashes ("sessionID/timestamp");
// intermediate directories are created as needed.
func (s *Store) Put(key string, data []byte) error {
	if s == nil || s.root == "" {
		return ErrNotConfigured
	}
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid blob key %q", key)
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

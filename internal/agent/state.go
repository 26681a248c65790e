// internal/agent/state.go
package agent

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadOffset reads the last processed byte offset from file.
// Returns zero if file doesn't exist or is corrupt.
func ReadOffset(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || offset < 0 {
		// Corrupt file - start from the beginning
		return 0, nil
	}
	return offset, nil
}

// WriteOffset writes the byte offset to the state file.
// Creates parent directories if needed.
func WriteOffset(path string, offset int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatInt(offset, 10)), 0644)
}

// internal/agent/tail.go
package agent

import (
	"fmt"
	"io"
	"os"
)

// MaxReadBytes caps how much new log data one poll may pick up
const MaxReadBytes = 256 * 1024

// ReadNew returns file content appended since offset, plus the new offset.
// A file smaller than the stored offset means rotation; reading restarts
// from the top of the new file.
func ReadNew(path string, offset int64) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, err
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return nil, offset, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek %s: %w", path, err)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxReadBytes))
	if err != nil {
		return nil, offset, err
	}
	return data, offset + int64(len(data)), nil
}

// internal/blob/blob_test.go
package blob

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutAndReadBack(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Put("sess-1/1756600000000", []byte("raw log bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sess-1", "1756600000000"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "raw log bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestPutRejectsBadKeys(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, key := range []string{"", "../escape", "a/../../b", "/absolute"} {
		if err := s.Put(key, []byte("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
	}
}

func TestPutUnconfigured(t *testing.T) {
	s := NewStore("")
	err := s.Put("sess/1", []byte("x"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

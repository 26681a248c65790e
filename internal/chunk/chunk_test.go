// internal/chunk/chunk_test.go
package chunk

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	chunks, err := Split("", 100, 10)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Split(\"\") returned %d chunks, want 0", len(chunks))
	}
}

func TestSplitInvalidMaxBytes(t *testing.T) {
	if _, err := Split("abc", 0, 0); err == nil {
		t.Error("Split with maxBytes=0 should error")
	}
	if _, err := Split("abc", -5, 0); err == nil {
		t.Error("Split with negative maxBytes should error")
	}
}

func TestSplitSingleChunk(t *testing.T) {
	chunks, err := Split("short", 100, 10)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("Split = %v, want [short]", chunks)
	}
}

func TestSplitByteCeiling(t *testing.T) {
	// Mixed ASCII and multi-byte content: every chunk must stay within the
	// encoded byte budget.
	text := strings.Repeat("err 500 éé 世界 ", 50)
	for _, maxBytes := range []int{16, 33, 100} {
		chunks, err := Split(text, maxBytes, 4)
		if err != nil {
			t.Fatalf("Split error: %v", err)
		}
		if len(chunks) == 0 {
			t.Fatalf("Split returned no chunks for maxBytes=%d", maxBytes)
		}
		for i, c := range chunks {
			if len(c) > maxBytes {
				t.Errorf("maxBytes=%d: chunk %d is %d bytes", maxBytes, i, len(c))
			}
		}
	}
}

func TestSplitOverlapEquality(t *testing.T) {
	text := strings.Repeat("abcdefghij", 20)
	overlap := 5
	chunks, err := Split(text, 50, overlap)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i+1 < len(chunks); i++ {
		tail := chunks[i][len(chunks[i])-overlap:]
		head := chunks[i+1][:overlap]
		if tail != head {
			t.Errorf("chunk %d tail %q != chunk %d head %q", i, tail, i+1, head)
		}
	}
}

func TestSplitReconstruction(t *testing.T) {
	text := strings.Repeat("0123456789", 37)
	overlap := 7
	chunks, err := Split(text, 40, overlap)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}

	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(c[overlap:])
	}
	if b.String() != text {
		t.Errorf("de-overlapped concatenation does not reconstruct input (got %d bytes, want %d)",
			b.Len(), len(text))
	}
}

func TestSplitTerminatesWithLargeOverlap(t *testing.T) {
	// overlap just below maxBytes is the classic non-termination trap
	text := strings.Repeat("x", 1000)
	done := make(chan []string, 1)
	go func() {
		chunks, _ := Split(text, 10, 9)
		done <- chunks
	}()
	chunks := <-done
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if len(c) > 10 {
			t.Errorf("chunk %d exceeds ceiling: %d bytes", i, len(c))
		}
	}
}

func TestSplitOverlapClampedBelowMax(t *testing.T) {
	// overlap >= maxBytes must be clamped, not loop forever
	chunks, err := Split(strings.Repeat("y", 100), 10, 50)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected multiple chunks, got %d", len(chunks))
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("kernel: Out of memory")
	b := Fingerprint("kernel: Out of memory")
	if a != b {
		t.Errorf("Fingerprint not deterministic: %q vs %q", a, b)
	}
	if len(a) != 40 {
		t.Errorf("Fingerprint length = %d, want 40 hex chars", len(a))
	}
}

func TestFingerprintDistinct(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"kernel panic", "kernel panic "},
		{"", "x"},
	}
	for _, p := range pairs {
		if Fingerprint(p[0]) == Fingerprint(p[1]) {
			t.Errorf("Fingerprint(%q) == Fingerprint(%q)", p[0], p[1])
		}
	}
}

// internal/chunk/chunk.go
package chunk

import (
	"errors"
	"unicode/utf8"
)

// Split cuts text into ordered chunks of at most maxBytes encoded bytes.
// Consecutive chunks share overlapBytes worth of content: each chunk after the
// first begins with the tail of its predecessor. Empty input yields no chunks.
//
// Byte accounting uses encoded length, not character count, so multi-byte
// characters can never push a chunk past maxBytes in storage or transport.
func Split(text string, maxBytes, overlapBytes int) ([]string, error) {
	if maxBytes <= 0 {
		return nil, errors.New("maxBytes must be greater than 0")
	}
	if overlapBytes < 0 {
		overlapBytes = 0
	}
	if overlapBytes >= maxBytes {
		overlapBytes = maxBytes - 1
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0

	for start < len(runes) {
		// Greedily extend while the encoded size stays within budget.
		end := start
		size := 0
		for end < len(runes) {
			n := utf8.RuneLen(runes[end])
			if size+n > maxBytes {
				break
			}
			size += n
			end++
		}
		if end == start {
			// Single rune wider than the whole budget. Config validation keeps
			// maxBytes >= utf8.UTFMax so this is unreachable in practice, but
			// advance anyway rather than loop forever.
			end++
		}

		chunks = append(chunks, string(runes[start:end]))
		if end >= len(runes) {
			break
		}

		// Next chunk starts overlapBytes before this one's end boundary. The
		// overlap must stay strictly shorter than the chunk or the start
		// boundary would stop advancing.
		overlap := overlapBytes
		if overlap >= end-start {
			overlap = end - start - 1
		}
		start = end - overlap
	}

	return chunks, nil
}

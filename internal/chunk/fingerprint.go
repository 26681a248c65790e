// internal/chunk/fingerprint.go
package chunk

import (
	"crypto/sha1" // #nosec G505 -- content-addressing key, not a security boundary
	"encoding/hex"
)

// Fingerprint returns the SHA-1 hex digest of the chunk's exact bytes.
// Deterministic: the same bytes always hash to the same key, which lets
// downstream consumers deduplicate identical chunks without storing the text.
func Fingerprint(text string) string {
	sum := sha1.Sum([]byte(text)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

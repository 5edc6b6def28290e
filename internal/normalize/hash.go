package normalize

import (
	"crypto/sha256"
	"strings"
)

// RowKey computes a stable SHA-256 over ordered field values, used to
// collapse duplicate extracted rows. Values are trimmed and joined with
// null separators so field boundaries cannot collide.
func RowKey(values ...string) [32]byte {
	h := sha256.New()
	for _, v := range values {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

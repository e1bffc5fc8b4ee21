package cryptoutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SecretEqual compares a presented credential with the configured one in
// time independent of where they differ. An empty configured value never
// matches.
func SecretEqual(presented, configured string) bool {
	if configured == "" {
		return false
	}
	// hash first so the comparison does not leak the configured length
	a := sha256.Sum256([]byte(presented))
	b := sha256.Sum256([]byte(configured))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

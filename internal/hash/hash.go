// Package hash computes the content hash over encoded IR bytes (spec §4.3:
// "the Hasher (trivial): SHA-256 over IR bytes").
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the lowercase hex SHA-256 digest of b. This is the same
// function encode.Encode applies internally to produce ir.IR.Hash; it is
// exported here so callers that only have raw bytes (e.g. store.Load
// re-verifying a file read off disk) don't need to import internal/encode.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether b's content hash equals want.
func Verify(b []byte, want string) bool {
	return Sum(b) == want
}

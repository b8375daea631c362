// Package cache memoizes parsed constraint and operation bodies. Expression
// text is keyed by its content hash and held in a bounded LRU, so repeated
// validation of the same schema parses every body once.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSource computes the SHA-256 hash of expression source text
func HashSource(source string) string {
	return HashContent([]byte(source))
}

// HashContent computes the SHA-256 hash of the given content
func HashContent(content []byte) string {
	hasher := sha256.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

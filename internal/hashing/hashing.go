// Package hashing provides content digests for cache keys and change
// detection.
package hashing

import (
	"encoding/hex"
	"os"

	"github.com/zeebo/blake3"
)

// Bytes computes a BLAKE3 digest of data and returns it as a hex string.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// File computes a BLAKE3 digest of a file's contents.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Bytes(data), nil
}

// Key hashes a cache key into a filesystem-safe name.
func Key(key string) string {
	return Bytes([]byte(key))
}

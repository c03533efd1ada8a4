// Package token generates the opaque secrets handed to clients (refresh
// tokens, verification tokens) and the peppered hashes stored in their place.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const rawBytes = 32

// NewOpaque returns a random 32-byte hex token together with its storage
// hash. Only the hash ever reaches the database.
func NewOpaque(pepper string) (raw string, hash string, err error) {
	buf := make([]byte, rawBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw, pepper), nil
}

// Hash returns SHA-256(raw+pepper) hex-encoded. The pepper keeps a leaked
// database dump from being replayed as live tokens.
func Hash(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}

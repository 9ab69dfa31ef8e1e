// Package security provides the pepper-HMAC hashing used to store
// credential secrets without ever persisting the plaintext.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher derives the stored hash for a raw credential.
type Hasher struct {
	pepper []byte
}

// NewHasher creates a Hasher bound to a process-wide pepper. The pepper
// must be kept secret and stable — rotating it invalidates every existing
// credential, since the stored hash can no longer be reproduced.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: []byte(pepper)}
}

// Hash returns the 64-hex-digit HMAC-SHA256 digest of raw using the
// configured pepper.
func (h *Hasher) Hash(raw string) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

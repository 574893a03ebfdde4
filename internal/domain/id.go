// Package domain id.go contains functions to generate, parse, and validate session IDs
package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// SessionID is the capability token addressing one batch's artifacts.
// It is a 128-bit random value encoded as 32 lowercase hex characters;
// possession of the token is the only authorization for download.
type SessionID string

// NewID generates a new cryptographically random 128-bit SessionID encoded
// as 32 lowercase hexadecimal characters.
func NewID() (SessionID, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	dst := make([]byte, 32)
	hex.Encode(dst, b[:]) // hex.Encode always produces lowercase
	return SessionID(dst), nil
}

// ParseID validates s and returns it as a SessionID. It enforces:
// - non-empty
// - length == 32
// - only lowercase [0-9a-f]
// Returns ErrInvalidID on failure.
func ParseID(s string) (SessionID, error) {
	if !isValidID(s) {
		return "", ErrInvalidID
	}
	return SessionID(s), nil
}

// String returns the string form of the SessionID.
func (id SessionID) String() string { return string(id) }

// Valid reports whether the ID satisfies the same rules as ParseID.
func (id SessionID) Valid() bool { return isValidID(string(id)) }

// isValidID performs validation without allocating errors.
func isValidID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

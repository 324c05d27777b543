package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const tokenByteLen = 32

func randomToken() (string, error) {
	buf := make([]byte, tokenByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSessionID returns an opaque 256-bit session identifier.
func NewSessionID() (string, error) {
	return randomToken()
}

// NewCSRFToken returns a per-session CSRF secret.
func NewCSRFToken() (string, error) {
	return randomToken()
}

// ConstantTimeEquals compares two tokens without leaking a timing signal.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

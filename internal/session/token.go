// Package session generates the opaque tokens that identify sessions.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the entropy of a session token. 32 bytes = 256 bits,
// comfortably past the 128-bit floor for unguessable identifiers.
const tokenBytes = 32

// GenerateToken returns a fresh cryptographically random session token
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

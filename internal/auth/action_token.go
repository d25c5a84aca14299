package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const actionTokenBytes = 32

// NewActionToken returns a random single-use token for verification and reset links.
func NewActionToken() (string, error) {
	raw := make([]byte, actionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// HashActionToken is the at-rest form of a reset token.
func HashActionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

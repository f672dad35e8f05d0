package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashString returns the hex SHA-256 of input.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// RedactEmail gives a short stable token for an address so logs can correlate
// attempts without recording the address itself. Case and surrounding spaces
// do not change the token.
func RedactEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return HashString(email)[:12]
}

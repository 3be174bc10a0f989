package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultLength is the number of random bytes in a token.
const DefaultLength = 32

// Generate returns a URL-safe token of DefaultLength random bytes.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength returns a URL-safe token of length random bytes.
func GenerateWithLength(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token: invalid length %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

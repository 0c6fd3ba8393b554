package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	TokenPrefix = "sk_"

	tokenBytes        = 32
	displayPrefixSize = 12
)

// GenerateToken returns a new plain token. Only its digest is ever stored.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(b), nil
}

// Digest is the lookup key for a plain token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DisplayPrefix is the non-secret part of a token shown in listings, e.g. "sk_1a2b3c4d...".
func DisplayPrefix(token string) string {
	if len(token) <= displayPrefixSize {
		return token
	}
	return token[:displayPrefixSize] + "..."
}

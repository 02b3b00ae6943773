package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenLength is the length of generated session tokens in bytes
const TokenLength = 32

// GenerateSessionToken generates a cryptographically secure random session token.
// Returns: token (hex string), token hash (SHA256 hex), error
//
// Only the hash is ever persisted; the raw token lives in the cookie.
func GenerateSessionToken() (string, string, error) {
	tokenBytes := make([]byte, TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken hashes a session token for storage/lookup
// Returns SHA256 hex hash
func HashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// WellFormedSessionToken reports whether token has the shape produced by
// GenerateSessionToken. Malformed cookies are treated as absent sessions
// without touching the store.
func WellFormedSessionToken(token string) bool {
	if len(token) != TokenLength*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

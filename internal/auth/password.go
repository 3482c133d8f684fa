// Package auth implements password hashing, API key generation, and
// session token handling.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	saltLength       = 16
	keyLength        = 32 // 256-bit derived key
)

// HashPassword derives a PBKDF2-SHA256 hash with a fresh random salt.
// Both values are returned base64 encoded for document storage.
func HashPassword(password string) (hash, salt string, err error) {
	rawSalt := make([]byte, saltLength)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), rawSalt, pbkdf2Iterations, keyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(derived),
		base64.StdEncoding.EncodeToString(rawSalt),
		nil
}

// VerifyPassword re-derives the hash under the stored salt and
// compares in constant time. A malformed stored salt verifies false.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	rawSalt, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(password), rawSalt, pbkdf2Iterations, keyLength, sha256.New)
	computed := base64.StdEncoding.EncodeToString(derived)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

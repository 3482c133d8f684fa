package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	apiKeyPrefix = "fh_"
	apiKeyBytes  = 32
	prefixChars  = 8
)

// GeneratedKey carries a freshly minted API key. The raw key is shown
// to the caller exactly once; only the hash and display prefix are
// stored.
type GeneratedKey struct {
	Key    string
	Hash   string
	Prefix string
}

// GenerateAPIKey mints a new key: fh_ plus 32 random bytes in
// unpadded base64url.
func GenerateAPIKey() (GeneratedKey, error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return GeneratedKey{}, fmt.Errorf("generate api key: %w", err)
	}
	key := apiKeyPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return GeneratedKey{
		Key:    key,
		Hash:   HashAPIKey(key),
		Prefix: key[:prefixChars],
	}, nil
}

// HashAPIKey returns the hex SHA-256 of the full key, the stored
// lookup value.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IsAPIKey reports whether a bearer token is an API key rather than
// a session token.
func IsAPIKey(token string) bool {
	return strings.HasPrefix(token, apiKeyPrefix)
}

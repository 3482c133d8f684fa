package model

import "time"

// APIKey is a long-lived bearer credential. Only the SHA-256 hash of
// the key is stored; the raw key is shown once at creation. KeyPrefix
// keeps the first characters for display.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"keyHash"`
	KeyPrefix  string     `json:"keyPrefix"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Expired reports whether the key has an expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

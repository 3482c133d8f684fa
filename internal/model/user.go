package model

import "time"

// User is an account holder. PasswordHash and PasswordSalt are the
// PBKDF2 derivation outputs, base64-encoded; neither ever leaves the
// store through a DTO.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	PasswordSalt string    `json:"passwordSalt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

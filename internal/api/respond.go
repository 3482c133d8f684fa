package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/model"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Message: msg}})
}

// apiError carries a status code alongside a client-facing message.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func (e *apiError) write(w http.ResponseWriter) {
	writeError(w, e.status, e.message)
}

// userDTO is the public view of a user; credentials never leave the
// store layer.
type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// apiKeyDTO exposes a stored key without its hash. Only the display
// prefix survives creation.
type apiKeyDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toAPIKeyDTO(k *model.APIKey) apiKeyDTO {
	return apiKeyDTO{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}

// createdAPIKeyDTO additionally carries the raw key, returned exactly
// once at creation time.
type createdAPIKeyDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	KeyPrefix string     `json:"keyPrefix"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/auth"
	"github.com/foghornhq/foghorn/internal/model"
)

type createAPIKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (s *Server) createAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Key name is required.")
		return
	}
	userID := currentUserID(r)

	generated, err := auth.GenerateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate API key.")
		return
	}

	key := &model.APIKey{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.stores.APIKeys.Create(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store API key.")
		return
	}

	s.logger.Info("api key created",
		zap.String("user_id", userID),
		zap.String("key_prefix", generated.Prefix),
	)

	// The raw key appears in this response and nowhere else.
	writeJSON(w, http.StatusCreated, map[string]createdAPIKeyDTO{"apiKey": {
		ID:        key.ID,
		Name:      key.Name,
		Key:       generated.Key,
		KeyPrefix: key.KeyPrefix,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	}})
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.stores.APIKeys.ByUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list API keys.")
		return
	}

	dtos := make([]apiKeyDTO, 0, len(keys))
	for _, k := range keys {
		dtos = append(dtos, toAPIKeyDTO(k))
	}
	writeJSON(w, http.StatusOK, map[string][]apiKeyDTO{"apiKeys": dtos})
}

func (s *Server) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	keyID := chi.URLParam(r, "id")

	key, err := s.stores.APIKeys.Find(r.Context(), keyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up API key.")
		return
	}
	if key == nil || key.UserID != userID {
		s.logger.Warn("api key not found on delete",
			zap.String("user_id", userID),
			zap.String("key_id", keyID),
		)
		writeError(w, http.StatusNotFound, "API key not found.")
		return
	}

	if err := s.stores.APIKeys.Delete(r.Context(), keyID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete API key.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

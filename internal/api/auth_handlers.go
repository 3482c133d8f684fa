package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/auth"
	"github.com/foghornhq/foghorn/internal/model"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required.")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters.")
		return
	}

	existing, err := s.stores.Users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user.")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email already registered.")
		return
	}

	hash, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password.")
		return
	}

	user := &model.User{Email: req.Email, PasswordHash: hash, PasswordSalt: salt}
	if err := s.stores.Users.Create(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, map[string]userDTO{"user": toUserDTO(user)})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	ExpiresIn int64   `json:"expiresIn"`
	Token     string  `json:"token"`
	User      userDTO `json:"user"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	user, err := s.stores.Users.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user.")
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash, user.PasswordSalt) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := auth.SignToken(s.cfg.Auth.JWTSecret, user.ID, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign token.")
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{
		ExpiresIn: int64(auth.TokenTTL.Seconds()),
		Token:     token,
		User:      toUserDTO(user),
	})
}

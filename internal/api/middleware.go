package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/auth"
)

type requestIDKey struct{}

type userIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if reqID, ok := r.Context().Value(requestIDKey{}).(string); ok {
			fields = append(fields, zap.String("request_id", reqID))
		}
		switch {
		case ww.status >= 500:
			s.logger.Error("request completed", fields...)
		case ww.status >= 400:
			s.logger.Warn("request completed", fields...)
		default:
			s.logger.Info("request completed", fields...)
		}
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError,
					"An unexpected error occurred. Please try again later.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware authenticates a bearer token. API keys are matched
// by hash and checked for expiry; anything else is verified as a
// session token. The resolved user id lands in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing authorization header.")
			return
		}

		var userID string
		if auth.IsAPIKey(token) {
			id, apiErr := s.authenticateAPIKey(r.Context(), token)
			if apiErr != nil {
				apiErr.write(w)
				return
			}
			userID = id
		} else {
			id, err := auth.VerifyToken(s.cfg.Auth.JWTSecret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}
			userID = id
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticateAPIKey(ctx context.Context, token string) (string, *apiError) {
	key, err := s.stores.APIKeys.FindByHash(ctx, auth.HashAPIKey(token))
	if err != nil {
		return "", &apiError{http.StatusUnauthorized, "API key authentication failed."}
	}
	if key == nil {
		return "", &apiError{http.StatusUnauthorized, "Invalid API key."}
	}
	if key.Expired(s.now()) {
		return "", &apiError{http.StatusUnauthorized, "API key has expired."}
	}

	used := s.now().UTC()
	key.LastUsedAt = &used
	if err := s.stores.APIKeys.Save(ctx, key); err != nil {
		s.logger.Warn("update api key last used",
			zap.String("key_id", key.ID),
			zap.Error(err),
		)
	}
	return key.UserID, nil
}

// internalAuthMiddleware guards worker-facing routes with a shared
// token compared in constant time.
func (s *Server) internalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := s.cfg.Auth.InternalToken
		if expected == "" {
			writeError(w, http.StatusUnauthorized, "Internal token not configured.")
			return
		}
		got := r.Header.Get("X-Internal-Token")
		if len(got) != len(expected) ||
			subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			writeError(w, http.StatusUnauthorized, "Invalid internal token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return token, token != ""
}

// currentUserID returns the authenticated user id set by
// authMiddleware.
func currentUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey{}).(string)
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/service"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for the caller's claims in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// Auth creates an authentication middleware
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				WriteError(w, r, appErr, logger)
				return
			}

			ctx := r.Context()
			claims, err := authService.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).WithField("request_id", RequestIDFromContext(ctx)).Debug("Token validation failed")
				WriteError(w, r, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx = context.WithValue(ctx, UserContextKey, claims)
			logger.WithField("user_id", claims.Sub).Debug("User authenticated successfully")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}

// ClaimsFromContext returns the authenticated caller, if any
func ClaimsFromContext(ctx context.Context) (*domain.AuthClaims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*domain.AuthClaims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated caller's ID or ""
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Sub
	}
	return ""
}

// RequestID creates a middleware that tags each request with an ID. An
// incoming X-Request-ID is kept so traces span services.
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// WriteError writes appErr as the JSON error envelope
func WriteError(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	requestID := RequestIDFromContext(r.Context())
	log := logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"status":     appErr.StatusCode,
		"path":       r.URL.Path,
	}).WithError(appErr)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request error")
	} else {
		log.Debug("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if err := json.NewEncoder(w).Encode(errors.NewErrorResponse(appErr, requestID, time.Now())); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}

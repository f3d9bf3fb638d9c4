package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error) {
	if token != "good" {
		return nil, fmt.Errorf("bad token")
	}
	return &domain.AuthClaims{Sub: "ana"}, nil
}

func (stubAuth) IssueToken(profile domain.UserProfile, ttl time.Duration) (string, error) {
	return "good", nil
}

func TestAuth(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequestID(logger.NewNop())(Auth(stubAuth{}, logger.NewNop())(next))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusNoContent, wantUser: "ana"},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
			if tt.wantStatus == http.StatusUnauthorized {
				var resp errors.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, errors.ErrorTypeAuthentication, resp.Error.Type)
				assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.Error.RequestID)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	h := RequestID(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, fromCtx, 36)
		assert.Equal(t, fromCtx, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "upstream-1", fromCtx)
	})

	t.Run("oversized is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Len(t, fromCtx, 36)
	})
}

func TestCORS(t *testing.T) {
	cfg := &CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         600,
	}
	h := CORS(cfg, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
		wantMaxAge string
	}{
		{name: "allowed preflight", method: http.MethodOptions, origin: "https://app.example", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "https://app.example", wantMaxAge: "600"},
		{name: "allowed request", method: http.MethodGet, origin: "https://app.example", wantStatus: http.StatusOK, wantOrigin: "https://app.example"},
		{name: "blocked preflight", method: http.MethodOptions, origin: "https://evil.example", preflight: true, wantStatus: http.StatusForbidden},
		{name: "blocked request still served", method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMaxAge, rec.Header().Get("Access-Control-Max-Age"))
		})
	}
}

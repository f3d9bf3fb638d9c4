package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/service"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token this service signs
const Issuer = "ideathon-be"

// Claims is the JWT body of an access token
type Claims struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Role          string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Service implements the AuthService interface with HS256 tokens
type Service struct {
	secret []byte
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(secret string, logger *logger.Logger) service.AuthService {
	return newService(secret, time.Now, logger)
}

func newService(secret string, now func() time.Time, logger *logger.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		now:    now,
		logger: logger,
	}
}

// ValidateToken validates an HS256 JWT and returns its claims
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.AuthClaims, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}
	if !isJWTToken(tokenString) {
		s.logger.Debug("Unrecognized token format")
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("JWT token has expired")
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}
	if !token.Valid {
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}
	if claims.Subject == "" {
		s.logger.Error("No user identifier found in JWT token")
		return nil, errors.NewAuthenticationError("Invalid JWT token: no user identifier")
	}

	out := &domain.AuthClaims{
		Sub:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
		Role:          claims.Role,
		Iss:           claims.Issuer,
	}
	if len(claims.Audience) > 0 {
		out.Aud = claims.Audience[0]
	}
	if claims.IssuedAt != nil {
		out.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Unix()
	}

	s.logger.WithField("user_id", out.Sub).Debug("JWT token validated successfully")
	return out, nil
}

// IssueToken signs an access token for profile
func (s *Service) IssueToken(profile domain.UserProfile, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.NewInternalError("JWT signing not configured", nil)
	}
	if profile.Sub == "" {
		return "", errors.NewValidationError("Token subject is required", nil)
	}

	now := s.now()
	claims := Claims{
		Email:         profile.Email,
		Name:          profile.Name,
		Picture:       profile.Picture,
		EmailVerified: profile.EmailVerified,
		Role:          profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Sub,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.NewInternalError("Failed to sign token", err)
	}
	return signed, nil
}

// isJWTToken reports whether token has exactly three dot-separated segments
func isJWTToken(token string) bool {
	if token == "" {
		return false
	}
	return strings.Count(token, ".") == 2
}

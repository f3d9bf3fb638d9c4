package service

import (
	"context"
	"strings"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/repository"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"
)

type userService struct {
	users  repository.UserRepository
	logger *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, logger *logger.Logger) UserService {
	return &userService{users: users, logger: logger}
}

// Ensure creates the caller's user row on first sight
func (s *userService) Ensure(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error) {
	if claims == nil || claims.Sub == "" {
		return nil, errors.NewAuthenticationError("Missing user identity")
	}

	username := claims.Email
	if at := strings.IndexByte(username, '@'); at > 0 {
		username = username[:at]
	}
	if username == "" {
		username = claims.Sub
	}
	role := claims.Role
	if role == "" {
		role = "participant"
	}

	user, err := s.users.Ensure(ctx, &domain.User{
		ID:          claims.Sub,
		Email:       claims.Email,
		Username:    username,
		DisplayName: claims.Name,
		Role:        role,
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", claims.Sub).Error("Failed to ensure user")
		return nil, err
	}
	return user, nil
}

// Get returns a user with their vault
func (s *userService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

package repository

import (
	"context"

	"ideathon-be/internal/domain"
)

// TeamRepository persists team aggregates with optimistic versioning
type TeamRepository interface {
	// GetByID retrieves a team by ID
	GetByID(ctx context.Context, id string) (*domain.Team, error)

	// GetByMember retrieves the team userID belongs to in an event
	GetByMember(ctx context.Context, eventID, userID string) (*domain.Team, error)

	// Create inserts a new team at version 1
	Create(ctx context.Context, team *domain.Team) error

	// Save writes the team if its version still matches the stored one and bumps it
	Save(ctx context.Context, team *domain.Team) error

	// ActiveIDs lists started teams that have not fired finalPhaseID or still
	// await a sweep of a time-boxed object
	ActiveIDs(ctx context.Context, finalPhaseID string) ([]string, error)
}

// UserRepository persists users and their Legacy Vault
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDs retrieves the users that exist among ids
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// Ensure creates the user on first sight and returns the stored row
	Ensure(ctx context.Context, user *domain.User) (*domain.User, error)

	// Save writes the user with an optimistic version check
	Save(ctx context.Context, user *domain.User) error
}

// ConsultancyRepository persists consultancy requests
type ConsultancyRepository interface {
	Create(ctx context.Context, req *domain.ConsultancyRequest) error
	GetByID(ctx context.Context, id string) (*domain.ConsultancyRequest, error)
	Update(ctx context.Context, req *domain.ConsultancyRequest) error
	// ListForUser returns requests addressed to userID, newest first
	ListForUser(ctx context.Context, userID string) ([]*domain.ConsultancyRequest, error)
}

// RatingRepository persists peer ratings
type RatingRepository interface {
	// Upsert records a rating, replacing the rater's previous rating of the same teammate in the event
	Upsert(ctx context.Context, rating *domain.TeamRating) error
	ListByEvent(ctx context.Context, eventID string) ([]*domain.TeamRating, error)
	// MVPTally counts MVP votes per ratee for an event
	MVPTally(ctx context.Context, eventID string) (map[string]int, error)
}

// NotificationRepository persists user notifications
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Team         TeamRepository
	User         UserRepository
	Consultancy  ConsultancyRepository
	Rating       RatingRepository
	Notification NotificationRepository
}

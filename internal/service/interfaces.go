package service

import (
	"context"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/sprint"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// ValidateToken validates an HS256 access token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)

	// IssueToken signs an access token for profile valid for ttl
	IssueToken(profile domain.UserProfile, ttl time.Duration) (string, error)
}

// UserService manages participant accounts and their Legacy Vault
type UserService interface {
	// Ensure creates the caller's user row on first sight and returns it
	Ensure(ctx context.Context, claims *domain.AuthClaims) (*domain.User, error)

	// Get returns a user with their power-ups and badges
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// LockService serialises writes to one team
type LockService interface {
	// Acquire blocks until the team lock is held and returns its release func
	Acquire(ctx context.Context, teamID string) (func(), error)
}

// NotificationService stores and delivers user notifications
type NotificationService interface {
	// Store writes notifications, joining a transaction carried by ctx
	Store(ctx context.Context, notifications []domain.Notification) error

	// Fanout pushes notifications to the recipients' live feeds
	Fanout(ctx context.Context, notifications []domain.Notification)

	// List returns a user's notifications, newest first
	List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error)

	// Feed returns the user's most recent notifications from the live feed
	Feed(ctx context.Context, userID string, limit int) ([]domain.Notification, error)

	// MarkRead marks one of the user's notifications read
	MarkRead(ctx context.Context, userID, id string) error
}

// CreateTeamRequest is the payload for forming a team
type CreateTeamRequest struct {
	Name            string                    `json:"name"`
	EventID         string                    `json:"event_id"`
	ProjectQuestion string                    `json:"project_question"`
	SuperpowerFocus domain.SuperpowerCategory `json:"superpower_focus"`
}

// MVPEntry is one row of an event's MVP tally
type MVPEntry struct {
	UserID string `json:"user_id"`
	Votes  int    `json:"votes"`
}

// SprintService runs the sprint engine against persisted team state
type SprintService interface {
	// Start begins the background ticker that advances every active sprint
	Start(ctx context.Context) error

	// Stop halts the background ticker
	Stop(ctx context.Context) error

	// TickActive advances every active sprint once and returns how many were ticked
	TickActive(ctx context.Context) (int, error)

	CreateTeam(ctx context.Context, actor string, req CreateTeamRequest) (*domain.Team, error)
	JoinTeam(ctx context.Context, actor, teamID string, focus domain.SuperpowerCategory) (*domain.Team, error)

	GetSprint(ctx context.Context, actor, teamID string) (*sprint.View, error)
	StartSprint(ctx context.Context, actor, teamID string) (*sprint.View, error)
	SelectMilestones(ctx context.Context, actor, teamID string, types []domain.MilestoneType) ([]domain.Milestone, error)
	CompleteMilestone(ctx context.Context, actor, teamID, milestoneID string) (*domain.Milestone, error)
	SubmitSlide(ctx context.Context, actor, teamID string, number int, content string) (*sprint.SlideResult, error)
	PurchaseBoost(ctx context.Context, actor, teamID string, boost domain.BoostType) (*domain.ActiveBoost, error)
	EquipPowerUp(ctx context.Context, actor, teamID, powerUpID string) (*domain.PowerUp, error)
	UseShield(ctx context.Context, actor, teamID string) (*domain.Roadblock, error)

	StartVote(ctx context.Context, actor, teamID string, req sprint.VoteRequest) (*domain.ConsensusVote, error)
	CastVote(ctx context.Context, actor, teamID, voteID, option string) (*domain.ConsensusVote, error)

	HireConsultant(ctx context.Context, actor, teamID string, req sprint.HireRequest) (*domain.ConsultancyRequest, error)
	RespondConsultancy(ctx context.Context, actor, requestID string, accept bool) (*domain.ConsultancyRequest, error)
	CompleteConsultancy(ctx context.Context, actor, requestID string) (*domain.ConsultancyRequest, error)
	ListConsultancies(ctx context.Context, actor string) ([]*domain.ConsultancyRequest, error)

	RateTeammate(ctx context.Context, actor, teamID string, req domain.RateRequest) (*domain.TeamRating, error)
	MVPLeaderboard(ctx context.Context, eventID string) ([]MVPEntry, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth         AuthService
	User         UserService
	Sprint       SprintService
	Notification NotificationService
}

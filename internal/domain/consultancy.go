package domain

import "time"

// ConsultancyStatus is the lifecycle state of a consultancy request
type ConsultancyStatus string

const (
	ConsultancyPending   ConsultancyStatus = "pending"
	ConsultancyAccepted  ConsultancyStatus = "accepted"
	ConsultancyDeclined  ConsultancyStatus = "declined"
	ConsultancyCompleted ConsultancyStatus = "completed"
)

// ConsultancyRequest is a team's request to hire an expert from outside the team
type ConsultancyRequest struct {
	ID               string             `json:"id"`
	EventID          string             `json:"event_id"`
	FromTeamID       string             `json:"from_team_id"`
	FromTeamName     string             `json:"from_team_name"`
	RequestedBy      string             `json:"requested_by"`
	ToUserID         string             `json:"to_user_id"`
	SuperpowerNeeded SuperpowerCategory `json:"superpower_needed"`
	Description      string             `json:"description"`
	Status           ConsultancyStatus  `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	RespondedAt      *time.Time         `json:"responded_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	PointsEarned     int                `json:"points_earned,omitempty"`
}

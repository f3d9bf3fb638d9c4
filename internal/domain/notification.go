package domain

import "time"

// NotificationType categorises a notification
type NotificationType string

const (
	NotificationChallenge   NotificationType = "challenge"
	NotificationRoadblock   NotificationType = "roadblock"
	NotificationConsensus   NotificationType = "consensus"
	NotificationConsultancy NotificationType = "consultancy"
	NotificationMilestone   NotificationType = "milestone"
	NotificationLoot        NotificationType = "loot"
	NotificationKudos       NotificationType = "kudos"
	NotificationLockdown    NotificationType = "lockdown"
)

// Notification is a message addressed to one user
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	TeamID    string           `json:"team_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

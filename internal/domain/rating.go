package domain

import "time"

// TeamRating is one member's peer rating of a teammate for an event
type TeamRating struct {
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	TeamID     string    `json:"team_id"`
	EventID    string    `json:"event_id"`
	Rating     int       `json:"rating"`
	Feedback   string    `json:"feedback"`
	IsMVPVote  bool      `json:"is_mvp_vote"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RateRequest is the payload of a teammate rating
type RateRequest struct {
	UserID   string `json:"user_id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
	IsMVP    bool   `json:"is_mvp"`
}

package domain

import "time"

// User is a participant with their Legacy Vault inventory and stats
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	PowerUps    []PowerUp `json:"power_ups"`
	Badges      []Badge   `json:"badges"`

	EventsParticipated    int `json:"events_participated"`
	ConsultanciesProvided int `json:"consultancies_provided"`
	MVPWins               int `json:"mvp_wins"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PowerUp returns the owned power-up with the given ID
func (u *User) PowerUp(id string) (*PowerUp, bool) {
	for i := range u.PowerUps {
		if u.PowerUps[i].ID == id {
			return &u.PowerUps[i], true
		}
	}
	return nil, false
}

// UnusedPowerUp returns the first unused power-up of the given type
func (u *User) UnusedPowerUp(t PowerUpType) (*PowerUp, bool) {
	for i := range u.PowerUps {
		if u.PowerUps[i].Type == t && !u.PowerUps[i].Used() {
			return &u.PowerUps[i], true
		}
	}
	return nil, false
}

// UserProfile is the identity extracted from a validated access token
type UserProfile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
}

// AuthClaims represents JWT token claims
type AuthClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Iat           int64  `json:"iat"`
	Exp           int64  `json:"exp"`
}

package domain

import "time"

// MemberRole is the role of a member inside a team
type MemberRole string

const (
	RoleLeader MemberRole = "leader"
	RoleMember MemberRole = "member"
)

// SuperpowerCategory is the skill area a member focuses on
type SuperpowerCategory string

const (
	SuperpowerDesign       SuperpowerCategory = "design"
	SuperpowerStrategy     SuperpowerCategory = "strategy"
	SuperpowerStorytelling SuperpowerCategory = "storytelling"
	SuperpowerPrototyping  SuperpowerCategory = "prototyping"
	SuperpowerResearch     SuperpowerCategory = "research"
	SuperpowerTechnical    SuperpowerCategory = "technical"
)

// Valid reports whether c is a known superpower category
func (c SuperpowerCategory) Valid() bool {
	switch c {
	case SuperpowerDesign, SuperpowerStrategy, SuperpowerStorytelling,
		SuperpowerPrototyping, SuperpowerResearch, SuperpowerTechnical:
		return true
	}
	return false
}

// TeamMember is a user's seat in a team
type TeamMember struct {
	UserID          string             `json:"user_id"`
	Role            MemberRole         `json:"role"`
	SuperpowerFocus SuperpowerCategory `json:"superpower_focus"`
	JoinedAt        time.Time          `json:"joined_at"`
}

// Team is the aggregate holding one team's sprint progress
type Team struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	EventID         string `json:"event_id"`
	ProjectQuestion string `json:"project_question"`

	Members []TeamMember `json:"members"`

	Points            int `json:"points"`
	ConsultancyTokens int `json:"consultancy_tokens"`

	Slides             []Slide     `json:"slides"`
	SelectedMilestones []Milestone `json:"selected_milestones"`

	EquippedPowerUps []PowerUp     `json:"equipped_power_ups"`
	ActiveBoosts     []ActiveBoost `json:"active_boosts"`

	ActiveRoadblock     *Roadblock     `json:"active_roadblock,omitempty"`
	ActiveChallenge     *Challenge     `json:"active_challenge,omitempty"`
	ActiveConsensusVote *ConsensusVote `json:"active_consensus_vote,omitempty"`

	// Sprint bookkeeping
	SprintStart      *time.Time `json:"sprint_start,omitempty"`
	LastFiredPhaseID string     `json:"last_fired_phase_id,omitempty"`
	LockedDown       bool       `json:"locked_down"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTeam creates a team with the fixed slide deck and the given leader
func NewTeam(id, name, eventID, question string, leader TeamMember, tokens int) *Team {
	leader.Role = RoleLeader
	return &Team{
		ID:                id,
		Name:              name,
		EventID:           eventID,
		ProjectQuestion:   question,
		Members:           []TeamMember{leader},
		ConsultancyTokens: tokens,
		Slides:            DefaultSlides(),
		CreatedAt:         leader.JoinedAt,
		UpdatedAt:         leader.JoinedAt,
	}
}

// Member returns the member with the given user ID
func (t *Team) Member(userID string) (*TeamMember, bool) {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// IsMember reports whether userID belongs to the team
func (t *Team) IsMember(userID string) bool {
	_, ok := t.Member(userID)
	return ok
}

// Leader returns the team leader
func (t *Team) Leader() (*TeamMember, bool) {
	for i := range t.Members {
		if t.Members[i].Role == RoleLeader {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// Slide returns the slide with the given number
func (t *Team) Slide(number int) (*Slide, bool) {
	for i := range t.Slides {
		if t.Slides[i].SlideNumber == number {
			return &t.Slides[i], true
		}
	}
	return nil, false
}

// Milestone returns the selected milestone with the given ID
func (t *Team) Milestone(id string) (*Milestone, bool) {
	for i := range t.SelectedMilestones {
		if t.SelectedMilestones[i].ID == id {
			return &t.SelectedMilestones[i], true
		}
	}
	return nil, false
}

// EquippedPowerUp returns the equipped power-up with the given ID
func (t *Team) EquippedPowerUp(id string) (*PowerUp, bool) {
	for i := range t.EquippedPowerUps {
		if t.EquippedPowerUps[i].ID == id {
			return &t.EquippedPowerUps[i], true
		}
	}
	return nil, false
}

// AddPoints credits points to the team
func (t *Team) AddPoints(n int) {
	if n <= 0 {
		return
	}
	t.Points += n
}

// Spend deducts n points; it fails without charging when the balance is too low
func (t *Team) Spend(n int) error {
	if n < 0 {
		return Reject(CodeInvalidInput, "cost must not be negative")
	}
	if t.Points < n {
		return Reject(CodeInsufficientPoints, "not enough points")
	}
	t.Points -= n
	return nil
}

// Penalize deducts up to n points, flooring the balance at zero. It returns the points actually removed.
func (t *Team) Penalize(n int) int {
	if n <= 0 {
		return 0
	}
	if n > t.Points {
		n = t.Points
	}
	t.Points -= n
	return n
}

// Ready reports whether the team has committed to its milestones
func (t *Team) Ready() bool {
	return len(t.SelectedMilestones) == MilestonesRequired
}

// Started reports whether the sprint clock has been started
func (t *Team) Started() bool {
	return t.SprintStart != nil
}

// AwaitingSweep reports whether the team still holds a time-boxed object
// that only a later tick can end
func (t *Team) AwaitingSweep() bool {
	if t.ActiveRoadblock != nil || t.ActiveChallenge != nil || len(t.ActiveBoosts) > 0 {
		return true
	}
	return t.ActiveConsensusVote != nil && t.ActiveConsensusVote.IsOpen()
}

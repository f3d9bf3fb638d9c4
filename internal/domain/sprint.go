package domain

import "time"

// SlideType is the fixed kind of each sprint slide
type SlideType string

const (
	SlideUserPersona    SlideType = "user_persona"
	SlideSolutionSketch SlideType = "solution_sketch"
	SlideInclusionAudit SlideType = "inclusion_audit"
)

// SlideReward is the fixed number of points a completed slide is worth
const SlideReward = 50

// Slide is one of the three deliverables of a sprint
type Slide struct {
	ID          string     `json:"id"`
	SlideNumber int        `json:"slide_number"`
	Type        SlideType  `json:"type"`
	Content     string     `json:"content"`
	Completed   bool       `json:"completed"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	Points      int        `json:"points"`
}

// DefaultSlides returns the fixed three-slide deck
func DefaultSlides() []Slide {
	return []Slide{
		{ID: "slide-1", SlideNumber: 1, Type: SlideUserPersona, Points: SlideReward},
		{ID: "slide-2", SlideNumber: 2, Type: SlideSolutionSketch, Points: SlideReward},
		{ID: "slide-3", SlideNumber: 3, Type: SlideInclusionAudit, Points: SlideReward},
	}
}

// SlideTypeFor returns the slide type for a slide number
func SlideTypeFor(number int) SlideType {
	switch number {
	case 1:
		return SlideUserPersona
	case 2:
		return SlideSolutionSketch
	default:
		return SlideInclusionAudit
	}
}

// MilestoneType identifies a milestone a team can commit to
type MilestoneType string

const (
	MilestoneUserResearch        MilestoneType = "user_research"
	MilestonePrototypeDraft      MilestoneType = "prototype_draft"
	MilestoneInclusionAudit      MilestoneType = "inclusion_audit"
	MilestoneBusinessModel       MilestoneType = "business_model"
	MilestoneTechnicalSpec       MilestoneType = "technical_spec"
	MilestonePresentationOutline MilestoneType = "presentation_outline"
)

// MilestonesRequired is how many milestones a team must select before the sprint starts
const MilestonesRequired = 3

// Milestone is a team commitment due at a given sprint minute
type Milestone struct {
	ID          string        `json:"id"`
	Type        MilestoneType `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	DueMinute   int           `json:"due_minute"`
	Points      int           `json:"points"`
	Completed   bool          `json:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Awarded     int           `json:"awarded"`
}

// BoostType identifies a purchasable boost
type BoostType string

const (
	BoostDeepFocus     BoostType = "deep_focus"
	BoostAIGhostwriter BoostType = "ai_ghostwriter"
	BoostHallShoutout  BoostType = "hall_shoutout"
)

// Boost describes a purchasable, time-bound effect
type Boost struct {
	Type        BoostType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cost        int       `json:"cost"`
	Duration    int       `json:"duration"` // minutes
}

// ActiveBoost is a purchased boost with its validity window
type ActiveBoost struct {
	Boost       Boost     `json:"boost"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RoadblockType identifies an adverse sprint event
type RoadblockType string

const (
	RoadblockPivot               RoadblockType = "the_pivot"
	RoadblockSilentSprint        RoadblockType = "silent_sprint"
	RoadblockResourceDrain       RoadblockType = "resource_drain"
	RoadblockRoleSwap            RoadblockType = "role_swap"
	RoadblockConstraintChallenge RoadblockType = "constraint_challenge"
)

// Roadblock is a time-boxed adverse event
type Roadblock struct {
	ID            string        `json:"id"`
	PhaseID       string        `json:"phase_id"`
	Type          RoadblockType `json:"type"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Penalty       int           `json:"penalty"`
	StartedAt     time.Time     `json:"started_at"`
	EndsAt        time.Time     `json:"ends_at"`
	CanBeShielded bool          `json:"can_be_shielded"`
	IsShielded    bool          `json:"is_shielded"`
}

// Expired reports whether the roadblock window has closed at now
func (r *Roadblock) Expired(now time.Time) bool {
	return !now.Before(r.EndsAt)
}

// Challenge is a bonus window tied to one slide
type Challenge struct {
	ID          string    `json:"id"`
	PhaseID     string    `json:"phase_id"`
	Minute      int       `json:"minute"`
	SlideNumber int       `json:"slide_number"`
	Type        SlideType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Reward      int       `json:"reward"`
	Deadline    time.Time `json:"deadline"`
	Completed   bool      `json:"completed"`
}

// Open reports whether the challenge still accepts a submission at now
func (c *Challenge) Open(now time.Time) bool {
	return !c.Completed && now.Before(c.Deadline)
}

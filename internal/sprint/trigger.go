package sprint

import (
	"fmt"
	"time"

	"ideathon-be/internal/domain"
)

// Trigger records one phase entry the resolver fired
type Trigger struct {
	Phase PhaseEntry `json:"phase"`
	At    time.Time  `json:"at"`

	Roadblock *domain.Roadblock `json:"roadblock,omitempty"`
	Challenge *domain.Challenge `json:"challenge,omitempty"`
	// Skipped is set when a live object of the same kind blocked materialisation
	Skipped bool `json:"skipped,omitempty"`
	// Penalty is the number of points the roadblock actually removed
	Penalty int `json:"penalty,omitempty"`
	// Overdue lists selected milestones past due at a milestone check
	Overdue []domain.Milestone `json:"overdue,omitempty"`
}

// Resolver turns phase entries into live sprint objects. It is edge
// triggered: the last fired entry is kept on the team, so an entry fires at
// most once per sprint no matter how often the clock ticks inside its window.
type Resolver struct {
	schedule Schedule
	newID    func() string
}

// NewResolver creates a resolver for schedule
func NewResolver(schedule Schedule, newID func() string) *Resolver {
	return &Resolver{schedule: schedule, newID: newID}
}

// Resolve fires every entry between the team's last fired entry and current,
// in schedule order. Each entry is anchored at its scheduled instant so a
// session reopened after a gap reproduces the same lifecycles. Expired
// objects are swept before each entry and once more at now.
func (r *Resolver) Resolve(team *domain.Team, start time.Time, current PhaseEntry, now time.Time) []Trigger {
	last := r.schedule.Index(team.LastFiredPhaseID)
	target := r.schedule.Index(current.ID)

	var fired []Trigger
	for i := last + 1; i <= target; i++ {
		e := r.schedule[i]
		at := start.Add(e.Offset())
		Sweep(team, at)
		fired = append(fired, r.fire(team, e, at))
		team.LastFiredPhaseID = e.ID
	}
	Sweep(team, now)
	return fired
}

func (r *Resolver) fire(team *domain.Team, e PhaseEntry, at time.Time) Trigger {
	tr := Trigger{Phase: e, At: at}
	switch e.Type {
	case PhaseRoadblock:
		r.openRoadblock(team, e, at, &tr)
	case PhaseChallenge:
		r.openChallenge(team, e, at, &tr)
	case PhaseMilestone:
		tr.Overdue = overdueMilestones(team, e.Minute)
	case PhaseLockdown:
		team.LockedDown = true
	case PhaseLoot:
		// loot is granted by the session, which holds the member inventories
	}
	return tr
}

func (r *Resolver) openRoadblock(team *domain.Team, e PhaseEntry, at time.Time, tr *Trigger) {
	if team.ActiveRoadblock != nil {
		tr.Skipped = true
		return
	}
	rb := &domain.Roadblock{
		ID:            r.newID(),
		PhaseID:       e.ID,
		Type:          domain.RoadblockResourceDrain,
		Name:          "Resource Drain",
		Description:   fmt.Sprintf("Your team loses %d points! Quick, use a Shield or work together to recover.", RoadblockPenalty),
		Penalty:       RoadblockPenalty,
		StartedAt:     at,
		EndsAt:        at.Add(RoadblockDuration),
		CanBeShielded: true,
	}
	// The penalty lands on creation; shielding later does not refund it.
	tr.Penalty = team.Penalize(rb.Penalty)
	team.ActiveRoadblock = rb
	tr.Roadblock = rb
}

func (r *Resolver) openChallenge(team *domain.Team, e PhaseEntry, at time.Time, tr *Trigger) {
	if team.ActiveChallenge != nil {
		tr.Skipped = true
		return
	}
	slide := r.schedule.ChallengeSlide(e.ID)
	ch := &domain.Challenge{
		ID:          r.newID(),
		PhaseID:     e.ID,
		Minute:      e.Minute,
		SlideNumber: slide,
		Type:        domain.SlideTypeFor(slide),
		Title:       e.Name,
		Description: fmt.Sprintf("Complete Slide %d to earn %d points!", slide, ChallengeReward),
		Reward:      ChallengeReward,
		Deadline:    at.Add(ChallengeWindow),
	}
	team.ActiveChallenge = ch
	tr.Challenge = ch
}

func overdueMilestones(team *domain.Team, minute int) []domain.Milestone {
	var out []domain.Milestone
	for _, m := range team.SelectedMilestones {
		if !m.Completed && m.DueMinute <= minute {
			out = append(out, m)
		}
	}
	return out
}

// Sweep ends every time-boxed object whose window has closed at now:
// roadblocks past endsAt, challenges past their deadline, boosts past expiry
// and an open vote past expiresAt.
func Sweep(team *domain.Team, now time.Time) {
	if rb := team.ActiveRoadblock; rb != nil && rb.Expired(now) {
		team.ActiveRoadblock = nil
	}
	if ch := team.ActiveChallenge; ch != nil && !now.Before(ch.Deadline) {
		team.ActiveChallenge = nil
	}
	if len(team.ActiveBoosts) > 0 {
		kept := team.ActiveBoosts[:0]
		for _, b := range team.ActiveBoosts {
			if now.Before(b.ExpiresAt) {
				kept = append(kept, b)
			}
		}
		team.ActiveBoosts = kept
	}
	Evaluate(team.ActiveConsensusVote, len(team.Members), now)
}

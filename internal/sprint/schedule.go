// Package sprint implements the sprint timeline engine: the clock, the phase
// schedule, the edge-triggered phase resolver and the team action rules.
//
// Everything here is synchronous and free of I/O. Callers load a team, build
// a Session, apply actions and persist the result.
package sprint

import (
	"fmt"
	"time"
)

// Fixed sprint timings and rewards
const (
	SprintDuration      = 120 * time.Minute
	RoadblockDuration   = 5 * time.Minute
	RoadblockPenalty    = 20
	ChallengeWindow     = 15 * time.Minute
	ChallengeReward     = 50
	BoostDuration       = 10 * time.Minute
	DefaultVoteDuration = 2 * time.Minute
	ConsultancyReward   = 25
)

// PhaseType is the kind of a schedule entry
type PhaseType int

const (
	PhaseMilestone PhaseType = iota
	PhaseRoadblock
	PhaseChallenge
	PhaseLockdown
	PhaseLoot
)

var phaseTypeNames = [...]string{
	PhaseMilestone: "milestone",
	PhaseRoadblock: "roadblock",
	PhaseChallenge: "challenge",
	PhaseLockdown:  "lockdown",
	PhaseLoot:      "loot",
}

func (t PhaseType) String() string {
	if t < 0 || int(t) >= len(phaseTypeNames) {
		return fmt.Sprintf("PhaseType(%d)", int(t))
	}
	return phaseTypeNames[t]
}

// MarshalText encodes the phase type by name
func (t PhaseType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(phaseTypeNames) {
		return nil, fmt.Errorf("invalid phase type %d", int(t))
	}
	return []byte(phaseTypeNames[t]), nil
}

// UnmarshalText decodes a phase type name
func (t *PhaseType) UnmarshalText(b []byte) error {
	for i, name := range phaseTypeNames {
		if name == string(b) {
			*t = PhaseType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase type %q", string(b))
}

// PhaseEntry is one time-anchored trigger of the sprint
type PhaseEntry struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Minute int       `json:"minute"`
	Type   PhaseType `json:"type"`
}

// Offset is the entry's distance from sprint start
func (e PhaseEntry) Offset() time.Duration {
	return time.Duration(e.Minute) * time.Minute
}

// Schedule is an ordered list of phase entries, sorted by minute and starting at minute 0
type Schedule []PhaseEntry

var defaultSchedule = Schedule{
	{ID: "start", Name: "Sprint Start", Minute: 0, Type: PhaseMilestone},
	{ID: "milestone1", Name: "Milestone 1", Minute: 20, Type: PhaseMilestone},
	{ID: "challenge1", Name: "User Persona", Minute: 30, Type: PhaseChallenge},
	{ID: "roadblock1", Name: "Roadblock #1", Minute: 45, Type: PhaseRoadblock},
	{ID: "challenge2", Name: "Solution Sketch", Minute: 60, Type: PhaseChallenge},
	{ID: "milestone2", Name: "Milestone 2", Minute: 75, Type: PhaseMilestone},
	{ID: "challenge3", Name: "Inclusion Audit", Minute: 90, Type: PhaseChallenge},
	{ID: "lockdown", Name: "Lockdown", Minute: 110, Type: PhaseLockdown},
	{ID: "loot", Name: "Loot Drop", Minute: 120, Type: PhaseLoot},
}

// DefaultSchedule returns a copy of the fixed sprint schedule
func DefaultSchedule() Schedule {
	s := make(Schedule, len(defaultSchedule))
	copy(s, defaultSchedule)
	return s
}

// PhaseAt returns the latest entry whose offset is not after elapsed.
// Before the first entry it returns the first entry.
func (s Schedule) PhaseAt(elapsed time.Duration) PhaseEntry {
	current := s[0]
	for _, e := range s {
		if e.Offset() > elapsed {
			break
		}
		current = e
	}
	return current
}

// NextAfter returns the earliest entry whose offset is after elapsed
func (s Schedule) NextAfter(elapsed time.Duration) (PhaseEntry, bool) {
	for _, e := range s {
		if e.Offset() > elapsed {
			return e, true
		}
	}
	return PhaseEntry{}, false
}

// Index returns the position of the entry with the given ID, or -1
func (s Schedule) Index(id string) int {
	for i, e := range s {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// ChallengeSlide returns the slide number a challenge entry targets: the
// entry's ordinal among challenge entries (1st -> slide 1, ...). It returns 0
// when id is not a challenge.
func (s Schedule) ChallengeSlide(id string) int {
	n := 0
	for _, e := range s {
		if e.Type != PhaseChallenge {
			continue
		}
		n++
		if e.ID == id {
			return n
		}
	}
	return 0
}

// Validate checks the ordering invariants of a schedule
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schedule is empty")
	}
	if s[0].Minute != 0 {
		return fmt.Errorf("schedule must start at minute 0, got %d", s[0].Minute)
	}
	seen := make(map[string]bool, len(s))
	for i, e := range s {
		if seen[e.ID] {
			return fmt.Errorf("duplicate phase id %q", e.ID)
		}
		seen[e.ID] = true
		if e.Offset() > SprintDuration {
			return fmt.Errorf("phase %q at minute %d is past the end of the sprint", e.ID, e.Minute)
		}
		if i > 0 && e.Minute < s[i-1].Minute {
			return fmt.Errorf("phase %q is out of order", e.ID)
		}
	}
	return nil
}

package domain

import "time"

// VoteStatus is the lifecycle state of a consensus vote
type VoteStatus string

const (
	VoteOpen     VoteStatus = "open"
	VoteResolved VoteStatus = "resolved"
	// VoteExpired means the deadline passed with no option reaching the threshold
	VoteExpired VoteStatus = "expired"
)

// ConsensusVote is a team-wide decision requiring a percentage of agreement
type ConsensusVote struct {
	ID                 string            `json:"id"`
	TeamID             string            `json:"team_id"`
	Question           string            `json:"question"`
	Options            []string          `json:"options"`
	Votes              map[string]string `json:"votes"`
	RequiredPercentage int               `json:"required_percentage"`
	CreatedBy          string            `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
	ExpiresAt          time.Time         `json:"expires_at"`
	Status             VoteStatus        `json:"status"`
	Resolved           bool              `json:"resolved"`
	Result             string            `json:"result,omitempty"`
	ClosedAt           *time.Time        `json:"closed_at,omitempty"`
}

// IsOpen reports whether the vote still accepts ballots
func (v *ConsensusVote) IsOpen() bool {
	return v.Status == VoteOpen
}

// HasOption reports whether option is one of the declared options
func (v *ConsensusVote) HasOption(option string) bool {
	for _, o := range v.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Tally counts ballots per option in declaration order
func (v *ConsensusVote) Tally() []OptionTally {
	counts := make(map[string]int, len(v.Options))
	for _, choice := range v.Votes {
		counts[choice]++
	}
	out := make([]OptionTally, 0, len(v.Options))
	for _, o := range v.Options {
		out = append(out, OptionTally{Option: o, Votes: counts[o]})
	}
	return out
}

// OptionTally is the number of ballots cast for one option
type OptionTally struct {
	Option string `json:"option"`
	Votes  int    `json:"votes"`
}

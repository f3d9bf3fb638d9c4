package sprint

import (
	"strings"
	"time"

	"ideathon-be/internal/domain"
)

// VoteRequest starts a consensus vote
type VoteRequest struct {
	Question           string        `json:"question"`
	Options            []string      `json:"options"`
	RequiredPercentage int           `json:"required_percentage"`
	Duration           time.Duration `json:"-"`
	DurationSeconds    int           `json:"duration_seconds,omitempty"`
}

// StartVote opens a new consensus vote on the team. Only one vote may be open
// at a time; a resolved or expired vote is replaced.
func StartVote(team *domain.Team, actor, id string, req VoteRequest, now time.Time) (*domain.ConsensusVote, error) {
	if !team.IsMember(actor) {
		return nil, domain.Reject(domain.CodeNotMember, "user %s is not on team %s", actor, team.ID)
	}
	if v := team.ActiveConsensusVote; v != nil && v.IsOpen() {
		return nil, domain.Reject(domain.CodeVoteActive, "vote %s is still open", v.ID)
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.Reject(domain.CodeInvalidInput, "question is required")
	}
	options, err := normalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	required := req.RequiredPercentage
	if required == 0 {
		required = 50
	}
	if required < 1 || required > 100 {
		return nil, domain.Reject(domain.CodeInvalidInput, "required percentage must be between 1 and 100")
	}
	dur := req.Duration
	if dur == 0 && req.DurationSeconds > 0 {
		dur = time.Duration(req.DurationSeconds) * time.Second
	}
	if dur <= 0 {
		dur = DefaultVoteDuration
	}

	v := &domain.ConsensusVote{
		ID:                 id,
		TeamID:             team.ID,
		Question:           question,
		Options:            options,
		Votes:              make(map[string]string),
		RequiredPercentage: required,
		CreatedBy:          actor,
		CreatedAt:          now,
		ExpiresAt:          now.Add(dur),
		Status:             domain.VoteOpen,
	}
	team.ActiveConsensusVote = v
	return v, nil
}

func normalizeOptions(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, domain.Reject(domain.CodeInvalidInput, "options must not be empty")
		}
		if seen[o] {
			return nil, domain.Reject(domain.CodeInvalidInput, "duplicate option %q", o)
		}
		seen[o] = true
		out = append(out, o)
	}
	if len(out) < 2 {
		return nil, domain.Reject(domain.CodeInvalidInput, "a vote needs at least two options")
	}
	return out, nil
}

// CastVote records or overwrites userID's ballot and re-evaluates the vote
func CastVote(team *domain.Team, voteID, userID, option string, now time.Time) (*domain.ConsensusVote, error) {
	v := team.ActiveConsensusVote
	if v == nil || v.ID != voteID {
		return nil, domain.Reject(domain.CodeVoteClosed, "vote %s is not active", voteID)
	}
	if !team.IsMember(userID) {
		return nil, domain.Reject(domain.CodeNotMember, "user %s is not on team %s", userID, team.ID)
	}
	if !v.HasOption(option) {
		return nil, domain.Reject(domain.CodeInvalidOption, "%q is not an option of vote %s", option, voteID)
	}
	// A deadline that passed before this ballot closes the vote first.
	Evaluate(v, len(team.Members), now)
	if !v.IsOpen() {
		return nil, domain.Reject(domain.CodeVoteClosed, "vote %s is %s", voteID, v.Status)
	}

	v.Votes[userID] = option
	Evaluate(v, len(team.Members), now)
	return v, nil
}

// Evaluate settles an open vote. The first option in declaration order whose
// share of team members reaches the threshold wins; otherwise the vote expires
// once now reaches expiresAt. It reports whether the vote changed state.
func Evaluate(v *domain.ConsensusVote, members int, now time.Time) bool {
	if v == nil || !v.IsOpen() {
		return false
	}
	if members > 0 {
		for _, t := range v.Tally() {
			// votes/members >= required/100, kept in integers
			if t.Votes > 0 && t.Votes*100 >= v.RequiredPercentage*members {
				closed := now
				v.Status = domain.VoteResolved
				v.Resolved = true
				v.Result = t.Option
				v.ClosedAt = &closed
				return true
			}
		}
	}
	if !now.Before(v.ExpiresAt) {
		closed := now
		v.Status = domain.VoteExpired
		v.ClosedAt = &closed
		return true
	}
	return false
}

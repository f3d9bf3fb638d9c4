package domain

import (
	"errors"
	"fmt"
)

// RejectionCode identifies why a sprint action was refused
type RejectionCode string

const (
	CodeInvalidInput       RejectionCode = "invalid_input"
	CodeNotMember          RejectionCode = "not_member"
	CodeNotAllowed         RejectionCode = "not_allowed"
	CodeInsufficientPoints RejectionCode = "insufficient_points"
	CodeNoTokens           RejectionCode = "no_tokens"
	CodeSlideCompleted     RejectionCode = "slide_completed"
	CodeUnknownBoost       RejectionCode = "unknown_boost"
	CodePowerUpUsed        RejectionCode = "power_up_used"
	CodePowerUpMissing     RejectionCode = "power_up_missing"
	CodeAlreadyEquipped    RejectionCode = "already_equipped"
	CodeNoRoadblock        RejectionCode = "no_roadblock"
	CodeRoadblockShielded  RejectionCode = "roadblock_shielded"
	CodeVoteClosed         RejectionCode = "vote_closed"
	CodeVoteActive         RejectionCode = "vote_active"
	CodeInvalidOption      RejectionCode = "invalid_option"
	CodeSprintNotStarted   RejectionCode = "sprint_not_started"
	CodeSprintStarted      RejectionCode = "sprint_started"
	CodeSprintNotReady     RejectionCode = "sprint_not_ready"
	CodeLockedDown         RejectionCode = "locked_down"
	CodeMilestoneCompleted RejectionCode = "milestone_completed"
	CodeRequestState       RejectionCode = "request_state"
	CodeTeamFull           RejectionCode = "team_full"
)

// Rejection is a validation failure of a sprint action. No state is mutated when one is returned.
type Rejection struct {
	Code    RejectionCode `json:"code"`
	Message string        `json:"message"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Reject builds a Rejection
func Reject(code RejectionCode, format string, args ...interface{}) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a Rejection if it is one
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsRejection reports whether err carries the given rejection code
func IsRejection(err error, code RejectionCode) bool {
	r, ok := AsRejection(err)
	return ok && r.Code == code
}

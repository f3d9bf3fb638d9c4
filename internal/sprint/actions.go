package sprint

import (
	"fmt"
	"strings"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/inventory"
)

// Every action ticks the clock first, validates against the ticked state and
// only then mutates. A returned *domain.Rejection leaves the team unchanged.

func (s *Session) member(actor string) (*domain.TeamMember, error) {
	m, ok := s.team.Member(actor)
	if !ok {
		return nil, domain.Reject(domain.CodeNotMember, "user %s is not on team %s", actor, s.team.ID)
	}
	return m, nil
}

func (s *Session) leader(actor string) error {
	m, err := s.member(actor)
	if err != nil {
		return err
	}
	if m.Role != domain.RoleLeader {
		return domain.Reject(domain.CodeNotAllowed, "only the team leader can do this")
	}
	return nil
}

func (s *Session) running() error {
	if s.clock == nil {
		return domain.Reject(domain.CodeSprintNotStarted, "the sprint has not started")
	}
	return nil
}

// Start starts the sprint clock. The leader starts it once the team has
// committed to its milestones.
func (s *Session) Start(actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.leader(actor); err != nil {
		return err
	}
	if s.team.Started() {
		return domain.Reject(domain.CodeSprintStarted, "the sprint is already running")
	}
	if !s.team.Ready() {
		return domain.Reject(domain.CodeSprintNotReady, "select %d milestones before starting", domain.MilestonesRequired)
	}

	start := s.now()
	s.team.SprintStart = &start
	s.team.LastFiredPhaseID = ""
	s.team.LockedDown = false
	s.clock = NewClock(start, s.now, s.schedule)
	s.tick()
	return nil
}

// SelectMilestones commits the team to exactly three distinct milestones.
// Re-selecting replaces the previous choice until the sprint starts.
func (s *Session) SelectMilestones(actor string, types []domain.MilestoneType) ([]domain.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.leader(actor); err != nil {
		return nil, err
	}
	if s.team.Started() {
		return nil, domain.Reject(domain.CodeSprintStarted, "milestones are locked once the sprint starts")
	}
	if len(types) != domain.MilestonesRequired {
		return nil, domain.Reject(domain.CodeInvalidInput, "select exactly %d milestones", domain.MilestonesRequired)
	}

	seen := make(map[domain.MilestoneType]bool, len(types))
	selected := make([]domain.Milestone, 0, len(types))
	for _, t := range types {
		tmpl, ok := LookupMilestone(t)
		if !ok {
			return nil, domain.Reject(domain.CodeInvalidInput, "unknown milestone %q", t)
		}
		if seen[t] {
			return nil, domain.Reject(domain.CodeInvalidInput, "milestone %q selected twice", t)
		}
		seen[t] = true
		tmpl.ID = s.newID()
		selected = append(selected, tmpl)
	}
	s.team.SelectedMilestones = selected
	return selected, nil
}

// CompleteMilestone marks a selected milestone done. Points are only awarded
// when it is completed at or before its due minute.
func (s *Session) CompleteMilestone(actor, milestoneID string) (*domain.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return nil, err
	}
	if err := s.running(); err != nil {
		return nil, err
	}
	m, ok := s.team.Milestone(milestoneID)
	if !ok {
		return nil, domain.Reject(domain.CodeInvalidInput, "milestone %s is not selected", milestoneID)
	}
	if m.Completed {
		return nil, domain.Reject(domain.CodeMilestoneCompleted, "milestone %s is already completed", milestoneID)
	}

	now := s.now()
	m.Completed = true
	m.CompletedAt = &now
	if s.clock.Elapsed() <= time.Duration(m.DueMinute)*time.Minute {
		m.Awarded = m.Points
		s.team.AddPoints(m.Points)
	}
	s.notifyTeam(domain.NotificationMilestone, "Milestone completed: "+m.Name,
		fmt.Sprintf("+%d points", m.Awarded))
	return m, nil
}

// SlideResult reports what a slide submission earned
type SlideResult struct {
	Slide          domain.Slide `json:"slide"`
	Points         int          `json:"points"`
	ChallengeBonus int          `json:"challenge_bonus"`
	TeamPoints     int          `json:"team_points"`
}

// SubmitSlide completes a slide. A live challenge for the same slide whose
// deadline has not passed pays its reward on top.
func (s *Session) SubmitSlide(actor string, number int, content string) (SlideResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return SlideResult{}, err
	}
	if err := s.running(); err != nil {
		return SlideResult{}, err
	}
	if s.team.LockedDown {
		return SlideResult{}, domain.Reject(domain.CodeLockedDown, "submissions are closed")
	}
	slide, ok := s.team.Slide(number)
	if !ok {
		return SlideResult{}, domain.Reject(domain.CodeInvalidInput, "slide %d does not exist", number)
	}
	if slide.Completed {
		return SlideResult{}, domain.Reject(domain.CodeSlideCompleted, "slide %d is already completed", number)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return SlideResult{}, domain.Reject(domain.CodeInvalidInput, "slide content is required")
	}

	now := s.now()
	slide.Content = content
	slide.Completed = true
	slide.SubmittedAt = &now
	res := SlideResult{Points: slide.Points}
	s.team.AddPoints(slide.Points)

	if ch := s.team.ActiveChallenge; ch != nil && ch.SlideNumber == number && ch.Open(now) {
		ch.Completed = true
		res.ChallengeBonus = ch.Reward
		s.team.AddPoints(ch.Reward)
		s.notifyTeam(domain.NotificationChallenge, "Challenge completed: "+ch.Title,
			fmt.Sprintf("+%d bonus points", ch.Reward))
	}
	res.Slide = *slide
	res.TeamPoints = s.team.Points
	return res, nil
}

// PurchaseBoost buys a boost from the shop. The cost is never refunded.
func (s *Session) PurchaseBoost(actor string, t domain.BoostType) (domain.ActiveBoost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return domain.ActiveBoost{}, err
	}
	if err := s.running(); err != nil {
		return domain.ActiveBoost{}, err
	}
	if s.team.LockedDown {
		return domain.ActiveBoost{}, domain.Reject(domain.CodeLockedDown, "the shop is closed")
	}
	b, ok := LookupBoost(t)
	if !ok {
		return domain.ActiveBoost{}, domain.Reject(domain.CodeUnknownBoost, "unknown boost %q", t)
	}
	if err := s.team.Spend(b.Cost); err != nil {
		return domain.ActiveBoost{}, err
	}

	now := s.now()
	active := domain.ActiveBoost{
		Boost:       b,
		ActivatedAt: now,
		ExpiresAt:   now.Add(time.Duration(b.Duration) * time.Minute),
	}
	s.team.ActiveBoosts = append(s.team.ActiveBoosts, active)
	return active, nil
}

// EquipPowerUp places a reference to a member's power-up on the team. The
// item stays in its owner's vault.
func (s *Session) EquipPowerUp(actor, powerUpID string) (domain.PowerUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return domain.PowerUp{}, err
	}
	if _, ok := s.team.EquippedPowerUp(powerUpID); ok {
		return domain.PowerUp{}, domain.Reject(domain.CodeAlreadyEquipped, "power-up %s is already equipped", powerUpID)
	}
	owner := s.ownerOf(powerUpID)
	if owner == nil {
		return domain.PowerUp{}, domain.Reject(domain.CodePowerUpMissing, "power-up %s is not owned by a member of team %s", powerUpID, s.team.ID)
	}
	p, err := inventory.Equippable(owner, powerUpID)
	if err != nil {
		return domain.PowerUp{}, err
	}
	s.team.EquippedPowerUps = append(s.team.EquippedPowerUps, *p)
	return *p, nil
}

func (s *Session) ownerOf(powerUpID string) *domain.User {
	for _, m := range s.team.Members {
		u, ok := s.users[m.UserID]
		if !ok {
			continue
		}
		if _, ok := u.PowerUp(powerUpID); ok {
			return u
		}
	}
	return nil
}

// consume stamps usedAt on the team copy and the owner's vault copy of a power-up
func (s *Session) consume(p *domain.PowerUp, now time.Time) error {
	if err := inventory.MarkUsed(p, now); err != nil {
		return err
	}
	if owner, ok := s.users[p.OwnerID]; ok {
		if vp, ok := owner.PowerUp(p.ID); ok && !vp.Used() {
			used := now
			vp.UsedAt = &used
			s.dirty[owner.ID] = true
		}
	}
	if tp, ok := s.team.EquippedPowerUp(p.ID); ok && tp != p && !tp.Used() {
		used := now
		tp.UsedAt = &used
	}
	return nil
}

// UseShield blocks the live roadblock with an equipped, unused shield. The
// penalty applied when the roadblock fired stands.
func (s *Session) UseShield(actor string) (*domain.Roadblock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return nil, err
	}
	if err := s.running(); err != nil {
		return nil, err
	}
	now := s.now()
	rb := s.team.ActiveRoadblock
	if rb == nil || rb.Expired(now) {
		return nil, domain.Reject(domain.CodeNoRoadblock, "there is no active roadblock")
	}
	if rb.IsShielded {
		return nil, domain.Reject(domain.CodeRoadblockShielded, "roadblock %s is already shielded", rb.ID)
	}
	if !rb.CanBeShielded {
		return nil, domain.Reject(domain.CodeNotAllowed, "roadblock %s cannot be shielded", rb.ID)
	}

	var shield *domain.PowerUp
	for i := range s.team.EquippedPowerUps {
		p := &s.team.EquippedPowerUps[i]
		if p.Type == domain.PowerUpRoadblockShield && !p.Used() {
			shield = p
			break
		}
	}
	if shield == nil {
		return nil, domain.Reject(domain.CodePowerUpMissing, "no unused shield is equipped")
	}
	if err := s.consume(shield, now); err != nil {
		return nil, err
	}
	rb.IsShielded = true
	s.notifyTeam(domain.NotificationRoadblock, "Roadblock shielded", rb.Name+" has been blocked.")
	return rb, nil
}

// StartVote opens a consensus vote
func (s *Session) StartVote(actor string, req VoteRequest) (*domain.ConsensusVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if err := s.running(); err != nil {
		return nil, err
	}
	v, err := StartVote(s.team, actor, s.newID(), req, s.now())
	if err != nil {
		return nil, err
	}
	s.notifyTeam(domain.NotificationConsensus, "Vote started", v.Question)
	return v, nil
}

// CastVote records a ballot and announces the outcome if it settles the vote
func (s *Session) CastVote(actor, voteID, option string) (*domain.ConsensusVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if err := s.running(); err != nil {
		return nil, err
	}
	v, err := CastVote(s.team, voteID, actor, option, s.now())
	if err != nil {
		return nil, err
	}
	if !v.IsOpen() {
		s.announceVote(v)
	}
	return v, nil
}

// HireRequest asks a user outside the team for help
type HireRequest struct {
	UserID      string                    `json:"user_id"`
	Superpower  domain.SuperpowerCategory `json:"superpower"`
	Description string                    `json:"description"`
}

// HireConsultant spends a consultancy token on a pending request to an
// outside expert. A declined request does not return the token.
func (s *Session) HireConsultant(actor string, req HireRequest) (*domain.ConsultancyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if _, err := s.member(actor); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, domain.Reject(domain.CodeInvalidInput, "consultant is required")
	}
	if s.team.IsMember(req.UserID) {
		return nil, domain.Reject(domain.CodeNotAllowed, "cannot hire a member of your own team")
	}
	if !req.Superpower.Valid() {
		return nil, domain.Reject(domain.CodeInvalidInput, "unknown superpower %q", req.Superpower)
	}
	if s.team.ConsultancyTokens <= 0 {
		return nil, domain.Reject(domain.CodeNoTokens, "no consultancy tokens left")
	}

	s.team.ConsultancyTokens--
	cr := &domain.ConsultancyRequest{
		ID:               s.newID(),
		EventID:          s.team.EventID,
		FromTeamID:       s.team.ID,
		FromTeamName:     s.team.Name,
		RequestedBy:      actor,
		ToUserID:         req.UserID,
		SuperpowerNeeded: req.Superpower,
		Description:      strings.TrimSpace(req.Description),
		Status:           domain.ConsultancyPending,
		CreatedAt:        s.now(),
	}
	s.notify(req.UserID, domain.NotificationConsultancy, "Consultancy request",
		fmt.Sprintf("%s needs your %s superpower.", s.team.Name, req.Superpower))
	return cr, nil
}

// RespondConsultancy accepts or declines a pending request. Only the
// addressed consultant may answer.
func RespondConsultancy(req *domain.ConsultancyRequest, actor string, accept bool, now time.Time) error {
	if req.ToUserID != actor {
		return domain.Reject(domain.CodeNotAllowed, "request %s is not addressed to you", req.ID)
	}
	if req.Status != domain.ConsultancyPending {
		return domain.Reject(domain.CodeRequestState, "request %s is %s", req.ID, req.Status)
	}
	at := now
	req.RespondedAt = &at
	if accept {
		req.Status = domain.ConsultancyAccepted
	} else {
		req.Status = domain.ConsultancyDeclined
	}
	return nil
}

// CompleteConsultancy closes an accepted request on the consultant's own
// team session. The consultant's team earns the reward, doubled when the
// consultant holds an unused master consultant power-up.
func (s *Session) CompleteConsultancy(actor string, req *domain.ConsultancyRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	if req.ToUserID != actor {
		return 0, domain.Reject(domain.CodeNotAllowed, "request %s is not addressed to you", req.ID)
	}
	if _, err := s.member(actor); err != nil {
		return 0, err
	}
	if req.Status != domain.ConsultancyAccepted {
		return 0, domain.Reject(domain.CodeRequestState, "request %s is %s", req.ID, req.Status)
	}
	consultant, ok := s.users[actor]
	if !ok {
		return 0, domain.Reject(domain.CodeNotMember, "user %s is not loaded", actor)
	}

	now := s.now()
	points := ConsultancyReward
	if p, ok := consultant.UnusedPowerUp(domain.PowerUpMasterConsultant); ok {
		if err := s.consume(p, now); err != nil {
			return 0, err
		}
		points *= 2
	}
	s.team.AddPoints(points)
	consultant.ConsultanciesProvided++
	inventory.AwardBadge(consultant, s.newID(), domain.BadgeBridgeBuilder, s.team.EventID, now)
	s.dirty[consultant.ID] = true

	at := now
	req.Status = domain.ConsultancyCompleted
	req.CompletedAt = &at
	req.PointsEarned = points

	s.notify(req.RequestedBy, domain.NotificationConsultancy, "Consultancy completed",
		fmt.Sprintf("Your consultant finished helping %s.", req.FromTeamName))
	return points, nil
}

// RateTeammate records a peer rating. Repeat ratings of the same teammate
// in the same event replace the previous one when persisted.
func (s *Session) RateTeammate(actor string, req domain.RateRequest) (domain.TeamRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.member(actor); err != nil {
		return domain.TeamRating{}, err
	}
	if req.UserID == actor {
		return domain.TeamRating{}, domain.Reject(domain.CodeNotAllowed, "you cannot rate yourself")
	}
	if !s.team.IsMember(req.UserID) {
		return domain.TeamRating{}, domain.Reject(domain.CodeNotMember, "user %s is not on team %s", req.UserID, s.team.ID)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return domain.TeamRating{}, domain.Reject(domain.CodeInvalidInput, "rating must be between 1 and 5")
	}

	now := s.now()
	r := domain.TeamRating{
		FromUserID: actor,
		ToUserID:   req.UserID,
		TeamID:     s.team.ID,
		EventID:    s.team.EventID,
		Rating:     req.Rating,
		Feedback:   strings.TrimSpace(req.Feedback),
		IsMVPVote:  req.IsMVP,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsMVP {
		s.notify(req.UserID, domain.NotificationKudos, "You got an MVP vote", "A teammate voted you most valuable.")
	}
	return r, nil
}

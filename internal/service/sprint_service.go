package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/repository"
	"ideathon-be/internal/sprint"
	"ideathon-be/pkg/database"
	"ideathon-be/pkg/logger"

	"github.com/google/uuid"
)

// maxConflictRetries bounds how often a unit of work is replayed from the
// database after an optimistic version conflict.
const maxConflictRetries = 2

// SprintConfig tunes the sprint service. Zero values take the defaults.
type SprintConfig struct {
	InitialTokens int
	MaxTeamSize   int
	TickInterval  time.Duration
	Schedule      sprint.Schedule
	Now           func() time.Time
	NewID         func() string
	PickLoot      func(table []domain.PowerUpType) domain.PowerUpType
}

func (c SprintConfig) withDefaults() SprintConfig {
	if c.InitialTokens < 0 {
		c.InitialTokens = 0
	}
	if c.MaxTeamSize <= 0 {
		c.MaxTeamSize = 5
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.Schedule == nil {
		c.Schedule = sprint.DefaultSchedule()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

// sprintService loads a team, runs one engine action on it under the team
// lock and persists the outcome in a single transaction.
type sprintService struct {
	repos         *repository.Repositories
	tx            database.TxManager
	locks         LockService
	cache         *CacheService
	notifications NotificationService
	logger        *logger.Logger
	cfg           SprintConfig

	mu        sync.Mutex
	isRunning bool
	ticker    *time.Ticker
	stopTick  chan struct{}
	tickDone  chan struct{}
}

// NewSprintService creates a new sprint service
func NewSprintService(
	repos *repository.Repositories,
	tx database.TxManager,
	locks LockService,
	cache *CacheService,
	notifications NotificationService,
	logger *logger.Logger,
	cfg SprintConfig,
) SprintService {
	return &sprintService{
		repos:         repos,
		tx:            tx,
		locks:         locks,
		cache:         cache,
		notifications: notifications,
		logger:        logger,
		cfg:           cfg.withDefaults(),
	}
}

// unitOfWork carries what one action produced besides the team itself
type unitOfWork struct {
	session *sprint.Session
	team    *domain.Team

	// mutated marks a successful write; reads only persist tick effects
	mutated bool

	newRequests []*domain.ConsultancyRequest
	updated     []*domain.ConsultancyRequest
	ratings     []*domain.TeamRating
}

func (s *sprintService) sessionOptions() sprint.Options {
	return sprint.Options{
		Now:      s.cfg.Now,
		NewID:    s.cfg.NewID,
		PickLoot: s.cfg.PickLoot,
		Schedule: s.cfg.Schedule,
	}
}

// withTeam runs fn against teamID under its lock. A version conflict on
// save replays fn on state reloaded from the database.
func (s *sprintService) withTeam(ctx context.Context, teamID string, fn func(ctx context.Context, u *unitOfWork) error) error {
	unlock, err := s.locks.Acquire(ctx, teamID)
	if err != nil {
		return err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		err := s.runUnit(ctx, teamID, attempt > 0, fn)
		if errors.Is(err, repository.ErrVersionConflict) && attempt < maxConflictRetries {
			s.logger.WithFields(map[string]interface{}{
				"team_id": teamID,
				"attempt": attempt + 1,
			}).Warn("Team version conflict, replaying from database")
			_ = s.cache.InvalidateTeam(ctx, teamID)
			continue
		}
		return err
	}
}

func (s *sprintService) runUnit(ctx context.Context, teamID string, fresh bool, fn func(ctx context.Context, u *unitOfWork) error) error {
	var (
		team *domain.Team
		err  error
	)
	if fresh {
		team, err = s.repos.Team.GetByID(ctx, teamID)
	} else {
		team, err = s.cache.GetTeamWithCache(ctx, teamID, s.repos.Team.GetByID)
	}
	if err != nil {
		return err
	}

	users, err := s.repos.User.GetByIDs(ctx, memberIDs(team))
	if err != nil {
		return err
	}

	awaiting := team.AwaitingSweep()
	session := sprint.NewSession(team, users, s.sessionOptions())
	fired := session.Tick()
	swept := awaiting && !team.AwaitingSweep()

	u := &unitOfWork{session: session, team: team}
	actErr := fn(ctx, u)
	if actErr != nil {
		if _, ok := domain.AsRejection(actErr); !ok {
			return actErr
		}
		u.mutated = false
	}

	notifications := session.Drain()
	dirty := session.DirtyUsers()
	if !u.mutated && !swept && len(fired) == 0 && len(notifications) == 0 && len(dirty) == 0 {
		return actErr
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.repos.Team.Save(ctx, team); err != nil {
			return err
		}
		for _, user := range dirty {
			if err := s.repos.User.Save(ctx, user); err != nil {
				return err
			}
		}
		for _, req := range u.newRequests {
			if err := s.repos.Consultancy.Create(ctx, req); err != nil {
				return err
			}
		}
		for _, req := range u.updated {
			if err := s.repos.Consultancy.Update(ctx, req); err != nil {
				return err
			}
		}
		for _, r := range u.ratings {
			if err := s.repos.Rating.Upsert(ctx, r); err != nil {
				return err
			}
		}
		return s.notifications.Store(ctx, notifications)
	})
	if err != nil {
		return err
	}

	s.cache.CacheTeam(ctx, team)
	s.notifications.Fanout(ctx, notifications)

	if len(fired) > 0 {
		ids := make([]string, 0, len(fired))
		for _, tr := range fired {
			ids = append(ids, tr.Phase.ID)
		}
		s.logger.WithFields(map[string]interface{}{
			"team_id": team.ID,
			"phases":  ids,
			"points":  team.Points,
		}).Info("Sprint phases fired")
	}
	return actErr
}

func memberIDs(team *domain.Team) []string {
	ids := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Start initializes the background ticker
func (s *sprintService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	s.logger.WithField("interval", s.cfg.TickInterval.String()).Info("Starting sprint ticker...")

	s.ticker = time.NewTicker(s.cfg.TickInterval)
	s.stopTick = make(chan struct{})
	s.tickDone = make(chan struct{})
	go s.tickRoutine(s.ticker, s.stopTick, s.tickDone)

	s.isRunning = true
	s.logger.Info("Sprint ticker started successfully")
	return nil
}

// Stop gracefully shuts down the background ticker
func (s *sprintService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.logger.Info("Stopping sprint ticker...")
	s.ticker.Stop()
	close(s.stopTick)

	select {
	case <-s.tickDone:
	case <-ctx.Done():
		s.logger.Warn("Sprint ticker did not finish before shutdown deadline")
	}

	s.isRunning = false
	s.logger.Info("Sprint ticker stopped")
	return nil
}

func (s *sprintService) tickRoutine(ticker *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TickInterval)
			if n, err := s.TickActive(ctx); err != nil {
				s.logger.WithError(err).Error("Failed to tick active sprints")
			} else if n > 0 {
				s.logger.WithField("teams", n).Debug("Ticked active sprints")
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// TickActive advances every sprint that still has phases to fire
func (s *sprintService) TickActive(ctx context.Context) (int, error) {
	final := s.cfg.Schedule[len(s.cfg.Schedule)-1].ID
	ids, err := s.repos.Team.ActiveIDs(ctx, final)
	if err != nil {
		return 0, err
	}

	ticked := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ticked, ctx.Err()
		}
		err := s.withTeam(ctx, id, func(ctx context.Context, u *unitOfWork) error { return nil })
		if err != nil {
			s.logger.WithError(err).WithField("team_id", id).Warn("Failed to tick sprint")
			continue
		}
		ticked++
	}
	return ticked, nil
}

// CreateTeam forms a team with actor as its leader
func (s *sprintService) CreateTeam(ctx context.Context, actor string, req CreateTeamRequest) (*domain.Team, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.EventID = strings.TrimSpace(req.EventID)
	if req.Name == "" || req.EventID == "" {
		return nil, domain.Reject(domain.CodeInvalidInput, "team name and event are required")
	}
	if req.SuperpowerFocus != "" && !req.SuperpowerFocus.Valid() {
		return nil, domain.Reject(domain.CodeInvalidInput, "unknown superpower %q", req.SuperpowerFocus)
	}
	if err := s.ensureTeamless(ctx, req.EventID, actor); err != nil {
		return nil, err
	}

	leader := domain.TeamMember{
		UserID:          actor,
		SuperpowerFocus: req.SuperpowerFocus,
		JoinedAt:        s.cfg.Now().UTC(),
	}
	team := domain.NewTeam(s.cfg.NewID(), req.Name, req.EventID, strings.TrimSpace(req.ProjectQuestion), leader, s.cfg.InitialTokens)
	if err := s.repos.Team.Create(ctx, team); err != nil {
		return nil, err
	}
	s.cache.CacheTeam(ctx, team)

	s.logger.WithFields(map[string]interface{}{
		"team_id":  team.ID,
		"event_id": team.EventID,
		"leader":   actor,
	}).Info("Team created")
	return team, nil
}

// JoinTeam adds actor to a team whose sprint has not started
func (s *sprintService) JoinTeam(ctx context.Context, actor, teamID string, focus domain.SuperpowerCategory) (*domain.Team, error) {
	if focus != "" && !focus.Valid() {
		return nil, domain.Reject(domain.CodeInvalidInput, "unknown superpower %q", focus)
	}

	var joined *domain.Team
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		if u.team.IsMember(actor) {
			return domain.Reject(domain.CodeNotAllowed, "you are already on team %s", u.team.ID)
		}
		if u.team.Started() {
			return domain.Reject(domain.CodeSprintStarted, "team %s has already started its sprint", u.team.ID)
		}
		if len(u.team.Members) >= s.cfg.MaxTeamSize {
			return domain.Reject(domain.CodeTeamFull, "team %s already has %d members", u.team.ID, len(u.team.Members))
		}
		if err := s.ensureTeamless(ctx, u.team.EventID, actor); err != nil {
			return err
		}
		u.team.Members = append(u.team.Members, domain.TeamMember{
			UserID:          actor,
			Role:            domain.RoleMember,
			SuperpowerFocus: focus,
			JoinedAt:        s.cfg.Now().UTC(),
		})
		u.mutated = true
		joined = u.team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func (s *sprintService) ensureTeamless(ctx context.Context, eventID, userID string) error {
	existing, err := s.repos.Team.GetByMember(ctx, eventID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	default:
		return domain.Reject(domain.CodeNotAllowed, "you are already on team %s in this event", existing.ID)
	}
}

// GetSprint returns the ticked sprint view of a team
func (s *sprintService) GetSprint(ctx context.Context, actor, teamID string) (*sprint.View, error) {
	var (
		view sprint.View
		team *domain.Team
	)
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		if !u.team.IsMember(actor) {
			return domain.Reject(domain.CodeNotMember, "user %s is not on team %s", actor, u.team.ID)
		}
		view = u.session.View()
		team = u.team
		return nil
	})
	if err != nil {
		return nil, err
	}
	syncVersion(&view, team)
	return &view, nil
}

// StartSprint starts the team's sprint clock
func (s *sprintService) StartSprint(ctx context.Context, actor, teamID string) (*sprint.View, error) {
	var (
		view sprint.View
		team *domain.Team
	)
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		if err := u.session.Start(actor); err != nil {
			return err
		}
		u.mutated = true
		view = u.session.View()
		team = u.team
		return nil
	})
	if err != nil {
		return nil, err
	}
	syncVersion(&view, team)

	s.logger.WithFields(map[string]interface{}{
		"team_id": teamID,
		"leader":  actor,
	}).Info("Sprint started")
	return &view, nil
}

// syncVersion carries the post-save version into a view taken before the save
func syncVersion(view *sprint.View, team *domain.Team) {
	view.Team.Version = team.Version
	view.Team.UpdatedAt = team.UpdatedAt
}

// SelectMilestones commits the team to its three milestones
func (s *sprintService) SelectMilestones(ctx context.Context, actor, teamID string, types []domain.MilestoneType) ([]domain.Milestone, error) {
	var out []domain.Milestone
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		selected, err := u.session.SelectMilestones(actor, types)
		if err != nil {
			return err
		}
		u.mutated = true
		out = selected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteMilestone marks a selected milestone done
func (s *sprintService) CompleteMilestone(ctx context.Context, actor, teamID, milestoneID string) (*domain.Milestone, error) {
	var out domain.Milestone
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		m, err := u.session.CompleteMilestone(actor, milestoneID)
		if err != nil {
			return err
		}
		u.mutated = true
		out = *m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitSlide completes one of the team's slides
func (s *sprintService) SubmitSlide(ctx context.Context, actor, teamID string, number int, content string) (*sprint.SlideResult, error) {
	var out sprint.SlideResult
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		res, err := u.session.SubmitSlide(actor, number, content)
		if err != nil {
			return err
		}
		u.mutated = true
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":         teamID,
		"slide":           number,
		"challenge_bonus": out.ChallengeBonus,
		"team_points":     out.TeamPoints,
	}).Info("Slide submitted")
	return &out, nil
}

// PurchaseBoost buys a boost with team points
func (s *sprintService) PurchaseBoost(ctx context.Context, actor, teamID string, boost domain.BoostType) (*domain.ActiveBoost, error) {
	var out domain.ActiveBoost
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		b, err := u.session.PurchaseBoost(actor, boost)
		if err != nil {
			return err
		}
		u.mutated = true
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EquipPowerUp equips a member's power-up on the team
func (s *sprintService) EquipPowerUp(ctx context.Context, actor, teamID, powerUpID string) (*domain.PowerUp, error) {
	var out domain.PowerUp
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		p, err := u.session.EquipPowerUp(actor, powerUpID)
		if err != nil {
			return err
		}
		u.mutated = true
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UseShield blocks the live roadblock with an equipped shield
func (s *sprintService) UseShield(ctx context.Context, actor, teamID string) (*domain.Roadblock, error) {
	var out domain.Roadblock
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		rb, err := u.session.UseShield(actor)
		if err != nil {
			return err
		}
		u.mutated = true
		out = *rb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StartVote opens a consensus vote
func (s *sprintService) StartVote(ctx context.Context, actor, teamID string, req sprint.VoteRequest) (*domain.ConsensusVote, error) {
	var out *domain.ConsensusVote
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		v, err := u.session.StartVote(actor, req)
		if err != nil {
			return err
		}
		u.mutated = true
		out = copyVote(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CastVote records a ballot on the open vote
func (s *sprintService) CastVote(ctx context.Context, actor, teamID, voteID, option string) (*domain.ConsensusVote, error) {
	var out *domain.ConsensusVote
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		v, err := u.session.CastVote(actor, voteID, option)
		if err != nil {
			return err
		}
		u.mutated = true
		out = copyVote(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func copyVote(v *domain.ConsensusVote) *domain.ConsensusVote {
	c := *v
	c.Options = append([]string(nil), v.Options...)
	c.Votes = make(map[string]string, len(v.Votes))
	for k, val := range v.Votes {
		c.Votes[k] = val
	}
	return &c
}

// HireConsultant spends a token on a request to an outside expert
func (s *sprintService) HireConsultant(ctx context.Context, actor, teamID string, req sprint.HireRequest) (*domain.ConsultancyRequest, error) {
	if req.UserID != "" {
		if _, err := s.repos.User.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.Reject(domain.CodeInvalidInput, "consultant %s does not exist", req.UserID)
			}
			return nil, err
		}
	}

	var out *domain.ConsultancyRequest
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		cr, err := u.session.HireConsultant(actor, req)
		if err != nil {
			return err
		}
		u.mutated = true
		u.newRequests = append(u.newRequests, cr)
		out = cr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":    teamID,
		"request_id": out.ID,
		"consultant": out.ToUserID,
	}).Info("Consultant hired")
	return out, nil
}

// RespondConsultancy lets the addressed consultant accept or decline. It runs
// under the requesting team's lock since the request belongs to that team.
func (s *sprintService) RespondConsultancy(ctx context.Context, actor, requestID string, accept bool) (*domain.ConsultancyRequest, error) {
	req, err := s.repos.Consultancy.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.Acquire(ctx, req.FromTeamID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// reload under the lock
	req, err = s.repos.Consultancy.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.cfg.Now()
	if err := sprint.RespondConsultancy(req, actor, accept, now); err != nil {
		return nil, err
	}

	title, message := "Consultancy declined", "Your consultant declined the request. The token is not returned."
	if accept {
		title, message = "Consultancy accepted", "Your consultant accepted the request."
	}
	notification := domain.Notification{
		ID:        s.cfg.NewID(),
		UserID:    req.RequestedBy,
		TeamID:    req.FromTeamID,
		Type:      domain.NotificationConsultancy,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.repos.Consultancy.Update(ctx, req); err != nil {
			return err
		}
		return s.notifications.Store(ctx, []domain.Notification{notification})
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Fanout(ctx, []domain.Notification{notification})
	return req, nil
}

// CompleteConsultancy closes an accepted request on the consultant's own team
func (s *sprintService) CompleteConsultancy(ctx context.Context, actor, requestID string) (*domain.ConsultancyRequest, error) {
	req, err := s.repos.Consultancy.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != actor {
		return nil, domain.Reject(domain.CodeNotAllowed, "request %s is not addressed to you", req.ID)
	}
	home, err := s.repos.Team.GetByMember(ctx, req.EventID, actor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Reject(domain.CodeNotMember, "you are not on a team in event %s", req.EventID)
		}
		return nil, err
	}

	var out *domain.ConsultancyRequest
	err = s.withTeam(ctx, home.ID, func(ctx context.Context, u *unitOfWork) error {
		current, err := s.repos.Consultancy.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if _, err := u.session.CompleteConsultancy(actor, current); err != nil {
			return err
		}
		u.mutated = true
		u.updated = append(u.updated, current)
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"request_id": out.ID,
		"consultant": actor,
		"team_id":    home.ID,
		"points":     out.PointsEarned,
	}).Info("Consultancy completed")
	return out, nil
}

// ListConsultancies returns requests addressed to actor
func (s *sprintService) ListConsultancies(ctx context.Context, actor string) ([]*domain.ConsultancyRequest, error) {
	out, err := s.repos.Consultancy.ListForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.ConsultancyRequest{}
	}
	return out, nil
}

// RateTeammate records a peer rating
func (s *sprintService) RateTeammate(ctx context.Context, actor, teamID string, req domain.RateRequest) (*domain.TeamRating, error) {
	var out *domain.TeamRating
	err := s.withTeam(ctx, teamID, func(ctx context.Context, u *unitOfWork) error {
		r, err := u.session.RateTeammate(actor, req)
		if err != nil {
			return err
		}
		u.mutated = true
		out = &r
		u.ratings = append(u.ratings, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MVPLeaderboard ranks an event's participants by MVP votes
func (s *sprintService) MVPLeaderboard(ctx context.Context, eventID string) ([]MVPEntry, error) {
	tally, err := s.repos.Rating.MVPTally(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally MVP votes: %w", err)
	}
	out := make([]MVPEntry, 0, len(tally))
	for userID, votes := range tally {
		out = append(out, MVPEntry{UserID: userID, Votes: votes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

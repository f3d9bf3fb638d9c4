package sprint

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/inventory"

	"github.com/google/uuid"
)

// Options configures a Session. Zero values fall back to the wall clock,
// uuid identifiers, a uniform loot pick and the default schedule.
type Options struct {
	Now      func() time.Time
	NewID    func() string
	PickLoot func(table []domain.PowerUpType) domain.PowerUpType
	Schedule Schedule
}

// Session is the sprint engine bound to one team. It owns the team state and
// the inventories of its members for the duration of one unit of work; the
// caller loads them, applies actions and persists Team, DirtyUsers and the
// notifications returned by Drain.
type Session struct {
	mu sync.Mutex

	team  *domain.Team
	users map[string]*domain.User

	schedule Schedule
	clock    *Clock
	resolver *Resolver

	now      func() time.Time
	newID    func() string
	pickLoot func(table []domain.PowerUpType) domain.PowerUpType

	outbox []domain.Notification
	dirty  map[string]bool
}

// NewSession binds the engine to team. users should hold every member whose
// inventory may be touched; unknown members are skipped during loot grants.
func NewSession(team *domain.Team, users []*domain.User, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.PickLoot == nil {
		opts.PickLoot = randomLoot
	}
	if opts.Schedule == nil {
		opts.Schedule = DefaultSchedule()
	}

	s := &Session{
		team:     team,
		users:    make(map[string]*domain.User, len(users)),
		schedule: opts.Schedule,
		resolver: NewResolver(opts.Schedule, opts.NewID),
		now:      opts.Now,
		newID:    opts.NewID,
		pickLoot: opts.PickLoot,
		dirty:    make(map[string]bool),
	}
	for _, u := range users {
		if u != nil {
			s.users[u.ID] = u
		}
	}
	if team.SprintStart != nil {
		s.clock = NewClock(*team.SprintStart, s.now, s.schedule)
	}
	return s
}

func randomLoot(table []domain.PowerUpType) domain.PowerUpType {
	return table[rand.Intn(len(table))]
}

// Team returns the team state owned by the session
func (s *Session) Team() *domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.team
}

// User returns a loaded member inventory
func (s *Session) User(id string) (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Tick advances the clock and fires the phase entries reached since the last
// tick. It is a no-op before the sprint starts.
func (s *Session) Tick() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick()
}

func (s *Session) tick() []Trigger {
	if s.clock == nil {
		return nil
	}
	s.clock.Tick()
	now := s.now()

	vote := s.team.ActiveConsensusVote
	wasOpen := vote != nil && vote.IsOpen()

	fired := s.resolver.Resolve(s.team, s.clock.Start(), s.clock.CurrentPhase(), now)
	for _, tr := range fired {
		s.announce(tr)
	}

	if wasOpen && !vote.IsOpen() {
		s.announceVote(vote)
	}
	return fired
}

func (s *Session) announce(tr Trigger) {
	switch tr.Phase.Type {
	case PhaseRoadblock:
		if tr.Roadblock != nil {
			s.notifyTeam(domain.NotificationRoadblock, "Roadblock: "+tr.Roadblock.Name, tr.Roadblock.Description)
		}
	case PhaseChallenge:
		if tr.Challenge != nil {
			s.notifyTeam(domain.NotificationChallenge, "New challenge: "+tr.Challenge.Title, tr.Challenge.Description)
		}
	case PhaseMilestone:
		if tr.Phase.Minute == 0 {
			s.notifyTeam(domain.NotificationMilestone, "Sprint started", fmt.Sprintf("%d minutes on the clock. Go!", int(SprintDuration.Minutes())))
		}
		for _, m := range tr.Overdue {
			s.notifyTeam(domain.NotificationMilestone, "Milestone due: "+m.Name,
				fmt.Sprintf("%s was due at minute %d.", m.Description, m.DueMinute))
		}
	case PhaseLockdown:
		s.notifyTeam(domain.NotificationLockdown, "Lockdown", "Slides and boosts are now closed.")
	case PhaseLoot:
		s.dropLoot(tr.At)
	}
}

func (s *Session) dropLoot(at time.Time) {
	table := inventory.LootTable()
	for _, m := range s.team.Members {
		u, ok := s.users[m.UserID]
		if !ok {
			continue
		}
		p, err := inventory.NewPowerUp(s.newID(), s.pickLoot(table), u.ID, s.team.EventID, at)
		if err != nil {
			continue
		}
		inventory.Grant(u, p)
		s.dirty[u.ID] = true
		s.notify(u.ID, domain.NotificationLoot, "Loot earned: "+p.Name, p.Description)
	}
}

func (s *Session) announceVote(v *domain.ConsensusVote) {
	switch v.Status {
	case domain.VoteResolved:
		s.notifyTeam(domain.NotificationConsensus, "Consensus reached", fmt.Sprintf("%q: the team chose %q.", v.Question, v.Result))
	case domain.VoteExpired:
		s.notifyTeam(domain.NotificationConsensus, "No consensus reached", fmt.Sprintf("%q expired. Start a new vote to decide.", v.Question))
	}
}

func (s *Session) notifyTeam(t domain.NotificationType, title, message string) {
	for _, m := range s.team.Members {
		s.notify(m.UserID, t, title, message)
	}
}

func (s *Session) notify(userID string, t domain.NotificationType, title, message string) {
	s.outbox = append(s.outbox, domain.Notification{
		ID:        s.newID(),
		UserID:    userID,
		TeamID:    s.team.ID,
		Type:      t,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	})
}

// Drain returns and clears the pending notifications
func (s *Session) Drain() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outbox
	s.outbox = nil
	return out
}

// DirtyUsers returns the member inventories changed since the session was built
func (s *Session) DirtyUsers() []*domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.users[id])
	}
	return out
}

// View is a read model of the sprint for clients
type View struct {
	Team             domain.Team    `json:"team"`
	Started          bool           `json:"started"`
	Finished         bool           `json:"finished"`
	ElapsedMinutes   int            `json:"elapsed_minutes"`
	ElapsedSeconds   int            `json:"elapsed_seconds"`
	RemainingSeconds int            `json:"remaining_seconds"`
	CurrentPhase     *PhaseEntry    `json:"current_phase,omitempty"`
	NextPhase        *PhaseEntry    `json:"next_phase,omitempty"`
	NextPhaseIn      int            `json:"next_phase_in_seconds,omitempty"`
	Countdowns       Countdowns     `json:"countdowns"`
	Shop             []domain.Boost `json:"shop"`
	Schedule         Schedule       `json:"schedule"`
}

// Countdowns holds the seconds left on each live time-boxed object
type Countdowns struct {
	Roadblock int   `json:"roadblock,omitempty"`
	Challenge int   `json:"challenge,omitempty"`
	Vote      int   `json:"vote,omitempty"`
	Boosts    []int `json:"boosts,omitempty"`
}

// View ticks the session and returns a snapshot of it
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()

	v := View{
		Team:     *s.team,
		Shop:     Shop(),
		Schedule: s.schedule,
	}
	if s.clock == nil {
		v.RemainingSeconds = int(SprintDuration.Seconds())
		return v
	}

	now := s.now()
	cur := s.clock.CurrentPhase()
	v.Started = true
	v.Finished = s.clock.Finished()
	v.ElapsedMinutes = s.clock.ElapsedMinutes()
	v.ElapsedSeconds = int(s.clock.Elapsed().Seconds())
	v.RemainingSeconds = int(s.clock.Remaining().Seconds())
	v.CurrentPhase = &cur
	if next, ok := s.clock.NextPhase(); ok {
		v.NextPhase = &next
		v.NextPhaseIn = seconds(TimeRemaining(s.clock.At(next.Offset()), now))
	}
	if rb := s.team.ActiveRoadblock; rb != nil {
		v.Countdowns.Roadblock = seconds(TimeRemaining(rb.EndsAt, now))
	}
	if ch := s.team.ActiveChallenge; ch != nil {
		v.Countdowns.Challenge = seconds(TimeRemaining(ch.Deadline, now))
	}
	if vote := s.team.ActiveConsensusVote; vote != nil && vote.IsOpen() {
		v.Countdowns.Vote = seconds(TimeRemaining(vote.ExpiresAt, now))
	}
	for _, b := range s.team.ActiveBoosts {
		v.Countdowns.Boosts = append(v.Countdowns.Boosts, seconds(TimeRemaining(b.ExpiresAt, now)))
	}
	return v
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

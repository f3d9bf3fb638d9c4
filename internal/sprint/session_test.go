package sprint

import (
	"fmt"
	"testing"
	"time"

	"ideathon-be/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) At(minute int)           { c.t = base.Add(time.Duration(minute) * time.Minute) }

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func firstLoot(table []domain.PowerUpType) domain.PowerUpType { return table[0] }

// newTeam builds a team whose first member is the leader
func newTeam(members ...string) (*domain.Team, []*domain.User) {
	team := domain.NewTeam("team-1", "Night Owls", "event-1", "How might we make transit accessible?",
		domain.TeamMember{UserID: members[0], SuperpowerFocus: domain.SuperpowerDesign, JoinedAt: base}, 3)
	users := []*domain.User{{ID: members[0]}}
	for _, id := range members[1:] {
		team.Members = append(team.Members, domain.TeamMember{
			UserID:          id,
			Role:            domain.RoleMember,
			SuperpowerFocus: domain.SuperpowerResearch,
			JoinedAt:        base,
		})
		users = append(users, &domain.User{ID: id})
	}
	return team, users
}

var threeMilestones = []domain.MilestoneType{
	domain.MilestoneUserResearch,
	domain.MilestonePrototypeDraft,
	domain.MilestoneInclusionAudit,
}

func newSession(t *testing.T, members ...string) (*Session, *fakeClock) {
	t.Helper()
	team, users := newTeam(members...)
	clk := &fakeClock{t: base}
	s := NewSession(team, users, Options{Now: clk.Now, NewID: seqID(), PickLoot: firstLoot})
	return s, clk
}

func startedSession(t *testing.T, members ...string) (*Session, *fakeClock) {
	t.Helper()
	s, clk := newSession(t, members...)
	_, err := s.SelectMilestones(members[0], threeMilestones)
	require.NoError(t, err)
	require.NoError(t, s.Start(members[0]))
	s.Drain()
	return s, clk
}

func TestStartRequiresMilestones(t *testing.T) {
	s, _ := newSession(t, "ana", "ben")

	err := s.Start("ana")
	assert.True(t, domain.IsRejection(err, domain.CodeSprintNotReady))

	_, err = s.SelectMilestones("ben", threeMilestones)
	assert.True(t, domain.IsRejection(err, domain.CodeNotAllowed))

	_, err = s.SelectMilestones("ana", threeMilestones[:2])
	assert.True(t, domain.IsRejection(err, domain.CodeInvalidInput))

	_, err = s.SelectMilestones("ana", []domain.MilestoneType{domain.MilestoneUserResearch, domain.MilestoneUserResearch, domain.MilestoneTechnicalSpec})
	assert.True(t, domain.IsRejection(err, domain.CodeInvalidInput))

	selected, err := s.SelectMilestones("ana", threeMilestones)
	require.NoError(t, err)
	assert.Len(t, selected, 3)
	assert.Equal(t, 20, selected[0].DueMinute)

	assert.True(t, domain.IsRejection(s.Start("ben"), domain.CodeNotAllowed))
	require.NoError(t, s.Start("ana"))
	assert.True(t, domain.IsRejection(s.Start("ana"), domain.CodeSprintStarted))

	_, err = s.SelectMilestones("ana", threeMilestones)
	assert.True(t, domain.IsRejection(err, domain.CodeSprintStarted))

	team := s.Team()
	require.NotNil(t, team.SprintStart)
	assert.Equal(t, base, *team.SprintStart)
	assert.Equal(t, "start", team.LastFiredPhaseID)

	notes := s.Drain()
	require.Len(t, notes, 2)
	assert.Equal(t, "Sprint started", notes[0].Title)
	assert.Empty(t, s.Drain())
}

func TestActionsRequireRunningSprint(t *testing.T) {
	s, _ := newSession(t, "ana", "ben")

	_, err := s.SubmitSlide("ana", 1, "persona")
	assert.True(t, domain.IsRejection(err, domain.CodeSprintNotStarted))
	_, err = s.PurchaseBoost("ana", domain.BoostDeepFocus)
	assert.True(t, domain.IsRejection(err, domain.CodeSprintNotStarted))
	_, err = s.UseShield("ana")
	assert.True(t, domain.IsRejection(err, domain.CodeSprintNotStarted))
	_, err = s.StartVote("ana", VoteRequest{Question: "q", Options: []string{"a", "b"}})
	assert.True(t, domain.IsRejection(err, domain.CodeSprintNotStarted))
	assert.Nil(t, s.Tick())
}

func TestScenarioHireBoostSlide(t *testing.T) {
	s, _ := startedSession(t, "ana", "ben")
	s.Team().Points = 100

	_, err := s.HireConsultant("ana", HireRequest{UserID: "carol", Superpower: domain.SuperpowerStorytelling, Description: "pitch help"})
	require.NoError(t, err)
	_, err = s.PurchaseBoost("ana", domain.BoostHallShoutout)
	require.NoError(t, err)
	_, err = s.SubmitSlide("ben", 1, "Meet Maya, a wheelchair user commuting daily.")
	require.NoError(t, err)

	team := s.Team()
	assert.Equal(t, 130, team.Points)
	assert.Equal(t, 2, team.ConsultancyTokens)
	slide, _ := team.Slide(1)
	assert.True(t, slide.Completed)
}

func TestSubmitSlideTwice(t *testing.T) {
	s, _ := startedSession(t, "ana")

	res, err := s.SubmitSlide("ana", 1, "persona")
	require.NoError(t, err)
	assert.Equal(t, 50, res.Points)

	_, err = s.SubmitSlide("ana", 1, "persona v2")
	assert.True(t, domain.IsRejection(err, domain.CodeSlideCompleted))

	team := s.Team()
	assert.Equal(t, 50, team.Points)
	slide, _ := team.Slide(1)
	assert.Equal(t, "persona", slide.Content)
}

func TestSubmitSlideValidation(t *testing.T) {
	s, _ := startedSession(t, "ana")

	tests := []struct {
		name    string
		actor   string
		number  int
		content string
		code    domain.RejectionCode
	}{
		{name: "outsider", actor: "zed", number: 1, content: "x", code: domain.CodeNotMember},
		{name: "unknown slide", actor: "ana", number: 4, content: "x", code: domain.CodeInvalidInput},
		{name: "blank content", actor: "ana", number: 1, content: " \n ", code: domain.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitSlide(tt.actor, tt.number, tt.content)
			assert.True(t, domain.IsRejection(err, tt.code), "got %v", err)
		})
	}
	assert.Equal(t, 0, s.Team().Points)
}

func TestChallengeBonus(t *testing.T) {
	tests := []struct {
		name   string
		minute int
		bonus  int
	}{
		{name: "inside the window", minute: 70, bonus: 50},
		{name: "past the deadline", minute: 76, bonus: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clk := startedSession(t, "ana")
			clk.At(tt.minute)
			s.Tick()
			before := s.Team().Points

			res, err := s.SubmitSlide("ana", 2, "sketch")
			require.NoError(t, err)
			assert.Equal(t, tt.bonus, res.ChallengeBonus)
			assert.Equal(t, before+50+tt.bonus, s.Team().Points)
		})
	}
}

func TestChallengeForOtherSlideGivesNoBonus(t *testing.T) {
	s, clk := startedSession(t, "ana")
	clk.At(32)

	res, err := s.SubmitSlide("ana", 2, "sketch")
	require.NoError(t, err)
	assert.Zero(t, res.ChallengeBonus)
	assert.False(t, s.Team().ActiveChallenge.Completed)
}

func TestBoostsNeverDrivePointsNegative(t *testing.T) {
	sequences := [][]domain.BoostType{
		{domain.BoostAIGhostwriter, domain.BoostAIGhostwriter},
		{domain.BoostDeepFocus, domain.BoostDeepFocus, domain.BoostHallShoutout},
		{domain.BoostHallShoutout, domain.BoostHallShoutout, domain.BoostHallShoutout, domain.BoostHallShoutout},
		{domain.BoostDeepFocus, "mystery", domain.BoostAIGhostwriter, domain.BoostHallShoutout},
	}

	for i, seq := range sequences {
		t.Run(fmt.Sprintf("sequence %d", i), func(t *testing.T) {
			s, _ := startedSession(t, "ana")
			s.Team().Points = 60
			for _, b := range seq {
				before := s.Team().Points
				_, err := s.PurchaseBoost("ana", b)
				if err != nil {
					r, ok := domain.AsRejection(err)
					require.True(t, ok)
					assert.Contains(t, []domain.RejectionCode{domain.CodeInsufficientPoints, domain.CodeUnknownBoost}, r.Code)
					assert.Equal(t, before, s.Team().Points)
				}
				assert.GreaterOrEqual(t, s.Team().Points, 0)
			}
		})
	}
}

func TestBoostExpiry(t *testing.T) {
	s, clk := startedSession(t, "ana")
	s.Team().Points = 100

	b, err := s.PurchaseBoost("ana", domain.BoostDeepFocus)
	require.NoError(t, err)
	assert.Equal(t, base.Add(BoostDuration), b.ExpiresAt)
	assert.Equal(t, 70, s.Team().Points)

	clk.At(9)
	s.Tick()
	assert.Len(t, s.Team().ActiveBoosts, 1)

	clk.At(10)
	s.Tick()
	assert.Empty(t, s.Team().ActiveBoosts)
}

func grantShield(t *testing.T, s *Session, userID, id string) {
	t.Helper()
	u, ok := s.User(userID)
	require.True(t, ok)
	u.PowerUps = append(u.PowerUps, domain.PowerUp{ID: id, Type: domain.PowerUpRoadblockShield, Name: "Roadblock Shield", OwnerID: userID, EarnedAt: base})
}

func TestShieldRoadblock(t *testing.T) {
	s, clk := startedSession(t, "ana", "ben")
	s.Team().Points = 100
	grantShield(t, s, "ben", "shield-1")

	_, err := s.EquipPowerUp("ana", "shield-1")
	require.NoError(t, err)
	_, err = s.EquipPowerUp("ana", "shield-1")
	assert.True(t, domain.IsRejection(err, domain.CodeAlreadyEquipped))

	_, err = s.UseShield("ana")
	assert.True(t, domain.IsRejection(err, domain.CodeNoRoadblock))

	clk.At(45)
	s.Tick()
	team := s.Team()
	require.NotNil(t, team.ActiveRoadblock)
	assert.Equal(t, base.Add(50*time.Minute), team.ActiveRoadblock.EndsAt)
	assert.Equal(t, 80, team.Points)

	clk.At(48)
	rb, err := s.UseShield("ben")
	require.NoError(t, err)
	assert.True(t, rb.IsShielded)
	assert.Equal(t, 80, team.Points)

	ben, _ := s.User("ben")
	assert.NotNil(t, ben.PowerUps[0].UsedAt)
	assert.NotNil(t, team.EquippedPowerUps[0].UsedAt)
	require.Len(t, s.DirtyUsers(), 1)
	assert.Equal(t, "ben", s.DirtyUsers()[0].ID)

	_, err = s.UseShield("ana")
	assert.True(t, domain.IsRejection(err, domain.CodeRoadblockShielded))

	clk.At(50)
	s.Tick()
	assert.Nil(t, team.ActiveRoadblock)
	assert.Equal(t, 80, team.Points)
}

func TestUsedPowerUpCannotBeReused(t *testing.T) {
	s, clk := startedSession(t, "ana")
	grantShield(t, s, "ana", "shield-1")
	_, err := s.EquipPowerUp("ana", "shield-1")
	require.NoError(t, err)

	clk.At(45)
	_, err = s.UseShield("ana")
	require.NoError(t, err)

	// a second session with the same vault: the used item can't be equipped again
	ana, _ := s.User("ana")
	team, _ := newTeam("ana")
	other := NewSession(team, []*domain.User{ana}, Options{Now: clk.Now, NewID: seqID()})
	_, err = other.EquipPowerUp("ana", "shield-1")
	assert.True(t, domain.IsRejection(err, domain.CodePowerUpUsed))
	assert.Empty(t, team.EquippedPowerUps)
}

func TestUseShieldWithoutShield(t *testing.T) {
	s, clk := startedSession(t, "ana")
	clk.At(46)
	_, err := s.UseShield("ana")
	assert.True(t, domain.IsRejection(err, domain.CodePowerUpMissing))
	assert.False(t, s.Team().ActiveRoadblock.IsShielded)
}

func TestEquipRequiresMemberOwner(t *testing.T) {
	s, _ := startedSession(t, "ana")
	stranger := &domain.User{ID: "zed", PowerUps: []domain.PowerUp{{ID: "pu-9", Type: domain.PowerUpTeamSync, OwnerID: "zed"}}}
	s.users[stranger.ID] = stranger

	_, err := s.EquipPowerUp("ana", "pu-9")
	assert.True(t, domain.IsRejection(err, domain.CodePowerUpMissing))
	_, err = s.EquipPowerUp("zed", "pu-9")
	assert.True(t, domain.IsRejection(err, domain.CodeNotMember))
}

func TestLockdownClosesSubmissions(t *testing.T) {
	s, clk := startedSession(t, "ana")
	s.Team().Points = 100

	clk.At(110)
	_, err := s.SubmitSlide("ana", 3, "audit")
	assert.True(t, domain.IsRejection(err, domain.CodeLockedDown))
	_, err = s.PurchaseBoost("ana", domain.BoostHallShoutout)
	assert.True(t, domain.IsRejection(err, domain.CodeLockedDown))
	assert.True(t, s.Team().LockedDown)
	assert.Equal(t, 100-RoadblockPenalty, s.Team().Points)
}

func TestLootDrop(t *testing.T) {
	s, clk := startedSession(t, "ana", "ben", "cal")

	clk.At(130)
	fired := s.Tick()
	require.NotEmpty(t, fired)
	assert.Equal(t, "loot", fired[len(fired)-1].Phase.ID)

	dirty := s.DirtyUsers()
	require.Len(t, dirty, 3)
	for _, u := range dirty {
		require.Len(t, u.PowerUps, 1)
		assert.Equal(t, domain.PowerUpRoadblockShield, u.PowerUps[0].Type)
		assert.Equal(t, u.ID, u.PowerUps[0].OwnerID)
		assert.Equal(t, base.Add(SprintDuration), u.PowerUps[0].EarnedAt)
	}

	assert.Empty(t, s.Tick())
	for _, u := range s.DirtyUsers() {
		assert.Len(t, u.PowerUps, 1)
	}

	var loot int
	for _, n := range s.Drain() {
		if n.Type == domain.NotificationLoot {
			loot++
		}
	}
	assert.Equal(t, 3, loot)
}

func TestCompleteMilestone(t *testing.T) {
	s, clk := startedSession(t, "ana", "ben")
	team := s.Team()
	research := team.SelectedMilestones[0]
	draft := team.SelectedMilestones[1]

	clk.At(10)
	m, err := s.CompleteMilestone("ben", research.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, m.Awarded)
	assert.Equal(t, 30, team.Points)

	_, err = s.CompleteMilestone("ben", research.ID)
	assert.True(t, domain.IsRejection(err, domain.CodeMilestoneCompleted))

	clk.At(50)
	s.Tick()
	before := team.Points
	m, err = s.CompleteMilestone("ana", draft.ID)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	assert.Zero(t, m.Awarded)
	assert.Equal(t, before, team.Points)

	_, err = s.CompleteMilestone("ana", "nope")
	assert.True(t, domain.IsRejection(err, domain.CodeInvalidInput))
}

func TestSessionVote(t *testing.T) {
	s, clk := startedSession(t, "ana", "ben", "cal", "dee")

	v, err := s.StartVote("ana", VoteRequest{Question: "Which persona?", Options: []string{"optionA", "optionB"}, RequiredPercentage: 50})
	require.NoError(t, err)
	s.Drain()

	_, err = s.CastVote("ana", v.ID, "optionA")
	require.NoError(t, err)
	v, err = s.CastVote("ben", v.ID, "optionA")
	require.NoError(t, err)
	assert.Equal(t, "optionA", v.Result)

	notes := s.Drain()
	require.Len(t, notes, 4)
	assert.Equal(t, "Consensus reached", notes[0].Title)

	// an unanswered vote expires on tick
	v, err = s.StartVote("cal", VoteRequest{Question: "Name?", Options: []string{"x", "y"}})
	require.NoError(t, err)
	s.Drain()
	clk.Advance(DefaultVoteDuration)
	s.Tick()
	assert.Equal(t, domain.VoteExpired, v.Status)
	notes = s.Drain()
	require.Len(t, notes, 4)
	assert.Equal(t, "No consensus reached", notes[0].Title)
}

func TestHireConsultant(t *testing.T) {
	s, _ := newSession(t, "ana", "ben")

	tests := []struct {
		name string
		req  HireRequest
		code domain.RejectionCode
	}{
		{name: "teammate", req: HireRequest{UserID: "ben", Superpower: domain.SuperpowerDesign}, code: domain.CodeNotAllowed},
		{name: "no consultant", req: HireRequest{Superpower: domain.SuperpowerDesign}, code: domain.CodeInvalidInput},
		{name: "bad superpower", req: HireRequest{UserID: "carol", Superpower: "telepathy"}, code: domain.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.HireConsultant("ana", tt.req)
			assert.True(t, domain.IsRejection(err, tt.code), "got %v", err)
		})
	}
	assert.Equal(t, 3, s.Team().ConsultancyTokens)

	for i := 0; i < 3; i++ {
		cr, err := s.HireConsultant("ben", HireRequest{UserID: "carol", Superpower: domain.SuperpowerTechnical})
		require.NoError(t, err)
		assert.Equal(t, domain.ConsultancyPending, cr.Status)
		assert.Equal(t, "team-1", cr.FromTeamID)
	}
	_, err := s.HireConsultant("ben", HireRequest{UserID: "carol", Superpower: domain.SuperpowerTechnical})
	assert.True(t, domain.IsRejection(err, domain.CodeNoTokens))
	assert.Equal(t, 0, s.Team().ConsultancyTokens)

	notes := s.Drain()
	require.Len(t, notes, 3)
	assert.Equal(t, "carol", notes[0].UserID)
}

func TestConsultancyLifecycle(t *testing.T) {
	hiring, clk := newSession(t, "ana", "ben")
	cr, err := hiring.HireConsultant("ana", HireRequest{UserID: "carol", Superpower: domain.SuperpowerStorytelling})
	require.NoError(t, err)

	assert.True(t, domain.IsRejection(RespondConsultancy(cr, "ben", true, clk.Now()), domain.CodeNotAllowed))
	require.NoError(t, RespondConsultancy(cr, "carol", true, clk.Now()))
	assert.Equal(t, domain.ConsultancyAccepted, cr.Status)
	assert.True(t, domain.IsRejection(RespondConsultancy(cr, "carol", false, clk.Now()), domain.CodeRequestState))

	team, users := newTeam("carol", "dan")
	users[0].PowerUps = []domain.PowerUp{{ID: "mc-1", Type: domain.PowerUpMasterConsultant, OwnerID: "carol"}}
	consultants := NewSession(team, users, Options{Now: clk.Now, NewID: seqID()})

	_, err = consultants.CompleteConsultancy("dan", cr)
	assert.True(t, domain.IsRejection(err, domain.CodeNotAllowed))

	points, err := consultants.CompleteConsultancy("carol", cr)
	require.NoError(t, err)
	assert.Equal(t, 2*ConsultancyReward, points)
	assert.Equal(t, 50, team.Points)
	assert.Equal(t, domain.ConsultancyCompleted, cr.Status)
	assert.Equal(t, 50, cr.PointsEarned)

	carol, _ := consultants.User("carol")
	assert.Equal(t, 1, carol.ConsultanciesProvided)
	assert.NotNil(t, carol.PowerUps[0].UsedAt)
	require.Len(t, carol.Badges, 1)
	assert.Equal(t, domain.BadgeBridgeBuilder, carol.Badges[0].Type)

	_, err = consultants.CompleteConsultancy("carol", cr)
	assert.True(t, domain.IsRejection(err, domain.CodeRequestState))

	notes := consultants.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, "ana", notes[0].UserID)
}

func TestDeclinedConsultancyKeepsTokenSpent(t *testing.T) {
	s, clk := newSession(t, "ana")
	cr, err := s.HireConsultant("ana", HireRequest{UserID: "carol", Superpower: domain.SuperpowerResearch})
	require.NoError(t, err)
	require.NoError(t, RespondConsultancy(cr, "carol", false, clk.Now()))
	assert.Equal(t, domain.ConsultancyDeclined, cr.Status)
	assert.Equal(t, 2, s.Team().ConsultancyTokens)
}

func TestRateTeammate(t *testing.T) {
	s, _ := newSession(t, "ana", "ben")

	tests := []struct {
		name  string
		actor string
		req   domain.RateRequest
		code  domain.RejectionCode
	}{
		{name: "self", actor: "ana", req: domain.RateRequest{UserID: "ana", Rating: 5}, code: domain.CodeNotAllowed},
		{name: "outsider ratee", actor: "ana", req: domain.RateRequest{UserID: "zed", Rating: 5}, code: domain.CodeNotMember},
		{name: "outsider rater", actor: "zed", req: domain.RateRequest{UserID: "ben", Rating: 5}, code: domain.CodeNotMember},
		{name: "too low", actor: "ana", req: domain.RateRequest{UserID: "ben", Rating: 0}, code: domain.CodeInvalidInput},
		{name: "too high", actor: "ana", req: domain.RateRequest{UserID: "ben", Rating: 6}, code: domain.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RateTeammate(tt.actor, tt.req)
			assert.True(t, domain.IsRejection(err, tt.code), "got %v", err)
		})
	}

	r, err := s.RateTeammate("ana", domain.RateRequest{UserID: "ben", Rating: 4, Feedback: " great ", IsMVP: true})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Feedback)
	assert.Equal(t, "event-1", r.EventID)
	assert.True(t, r.IsMVPVote)

	notes := s.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationKudos, notes[0].Type)
}

func TestView(t *testing.T) {
	s, clk := newSession(t, "ana")
	v := s.View()
	assert.False(t, v.Started)
	assert.Equal(t, int(SprintDuration.Seconds()), v.RemainingSeconds)
	assert.Len(t, v.Shop, 3)

	_, err := s.SelectMilestones("ana", threeMilestones)
	require.NoError(t, err)
	require.NoError(t, s.Start("ana"))

	clk.At(47)
	v = s.View()
	assert.True(t, v.Started)
	assert.Equal(t, 47, v.ElapsedMinutes)
	require.NotNil(t, v.CurrentPhase)
	assert.Equal(t, "roadblock1", v.CurrentPhase.ID)
	require.NotNil(t, v.NextPhase)
	assert.Equal(t, "challenge2", v.NextPhase.ID)
	assert.Equal(t, 13*60, v.NextPhaseIn)
	assert.Equal(t, 3*60, v.Countdowns.Roadblock)
	assert.Equal(t, 0, v.Countdowns.Challenge)
}

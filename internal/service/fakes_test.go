package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/repository"
	"ideathon-be/pkg/logger"
	"ideathon-be/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) At(minute int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = base.Add(time.Duration(minute) * time.Minute)
}

func seqID() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// roundTrip deep-copies v through JSON so fakes never share memory with callers
func roundTrip[T any](t T) T {
	data, err := json.Marshal(t)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

type fakeTeamRepo struct {
	mu        sync.Mutex
	teams     map[string]domain.Team
	conflicts int
	saves     int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[string]domain.Team)}
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, fmt.Errorf("failed to get team %s: %w", id, repository.ErrNotFound)
	}
	out := roundTrip(t)
	return &out, nil
}

func (r *fakeTeamRepo) GetByMember(ctx context.Context, eventID, userID string) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := r.teams[id]
		if t.EventID == eventID && t.IsMember(userID) {
			out := roundTrip(t)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("failed to get team of user %s: %w", userID, repository.ErrNotFound)
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; ok {
		return repository.ErrAlreadyExists
	}
	team.Version = 1
	r.teams[team.ID] = roundTrip(*team)
	return nil
}

func (r *fakeTeamRepo) Save(ctx context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.teams[team.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrVersionConflict
	}
	if stored.Version != team.Version {
		return repository.ErrVersionConflict
	}
	team.Version++
	r.teams[team.ID] = roundTrip(*team)
	r.saves++
	return nil
}

func (r *fakeTeamRepo) ActiveIDs(ctx context.Context, finalPhaseID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, t := range r.teams {
		if t.SprintStart != nil && (t.LastFiredPhaseID != finalPhaseID || t.AwaitingSweep()) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeTeamRepo) stored(id string) domain.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	return roundTrip(r.teams[id])
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, id := range ids {
		r.users[id] = domain.User{ID: id, Username: id, Version: 1}
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user %s: %w", id, repository.ErrNotFound)
	}
	out := roundTrip(u)
	return &out, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			c := roundTrip(u)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Ensure(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		u = *user
		u.Version = 1
	} else {
		u.Email = user.Email
		u.DisplayName = user.DisplayName
	}
	r.users[user.ID] = u
	out := roundTrip(u)
	return &out, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok || stored.Version != user.Version {
		return fmt.Errorf("failed to save user %s: %w", user.ID, repository.ErrVersionConflict)
	}
	user.Version++
	r.users[user.ID] = roundTrip(*user)
	return nil
}

func (r *fakeUserRepo) stored(id string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return roundTrip(r.users[id])
}

type fakeConsultancyRepo struct {
	mu       sync.Mutex
	requests map[string]domain.ConsultancyRequest
}

func newFakeConsultancyRepo() *fakeConsultancyRepo {
	return &fakeConsultancyRepo{requests: make(map[string]domain.ConsultancyRequest)}
}

func (r *fakeConsultancyRepo) Create(ctx context.Context, req *domain.ConsultancyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = roundTrip(*req)
	return nil
}

func (r *fakeConsultancyRepo) GetByID(ctx context.Context, id string) (*domain.ConsultancyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := roundTrip(req)
	return &out, nil
}

func (r *fakeConsultancyRepo) Update(ctx context.Context, req *domain.ConsultancyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return repository.ErrNotFound
	}
	r.requests[req.ID] = roundTrip(*req)
	return nil
}

func (r *fakeConsultancyRepo) ListForUser(ctx context.Context, userID string) ([]*domain.ConsultancyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ConsultancyRequest
	for _, req := range r.requests {
		if req.ToUserID == userID {
			c := roundTrip(req)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]domain.TeamRating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[string]domain.TeamRating)}
}

func (r *fakeRatingRepo) Upsert(ctx context.Context, rating *domain.TeamRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rating.FromUserID + "|" + rating.ToUserID + "|" + rating.EventID
	if prev, ok := r.ratings[key]; ok {
		rating.CreatedAt = prev.CreatedAt
	}
	r.ratings[key] = *rating
	return nil
}

func (r *fakeRatingRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.TeamRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TeamRating
	for _, rt := range r.ratings {
		if rt.EventID == eventID {
			c := rt
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) MVPTally(ctx context.Context, eventID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, rt := range r.ratings {
		if rt.EventID == eventID && rt.IsMVPVote {
			out[rt.ToUserID]++
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notifications...)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeNotificationRepo) titlesFor(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n.Title)
		}
	}
	return out
}

// fakeTx runs fn directly; the fakes have no rollback
type fakeTx struct{ calls int }

func (tx *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type harness struct {
	clock         *fakeClock
	teams         *fakeTeamRepo
	users         *fakeUserRepo
	consultancies *fakeConsultancyRepo
	ratings       *fakeRatingRepo
	notifications *fakeNotificationRepo
	tx            *fakeTx
	redis         *redis.Client
	mr            *miniredis.Miniredis
	cache         *CacheService
	svc           SprintService
}

func newHarness(t *testing.T, users ...string) *harness {
	t.Helper()
	mr, client := newTestRedis(t)
	h := &harness{
		clock:         &fakeClock{t: base},
		teams:         newFakeTeamRepo(),
		users:         newFakeUserRepo(users...),
		consultancies: newFakeConsultancyRepo(),
		ratings:       newFakeRatingRepo(),
		notifications: &fakeNotificationRepo{},
		tx:            &fakeTx{},
		redis:         client,
		mr:            mr,
	}
	log := logger.NewNop()
	h.cache = NewCacheService(client, log.Logger)
	repos := &repository.Repositories{
		Team:         h.teams,
		User:         h.users,
		Consultancy:  h.consultancies,
		Rating:       h.ratings,
		Notification: h.notifications,
	}
	h.svc = NewSprintService(
		repos,
		h.tx,
		NewLockService(client, 5*time.Second, time.Second, log),
		h.cache,
		NewNotificationService(h.notifications, client, 20, log),
		log,
		SprintConfig{
			InitialTokens: 3,
			TickInterval:  time.Hour,
			Now:           h.clock.Now,
			NewID:         seqID(),
			PickLoot:      func(table []domain.PowerUpType) domain.PowerUpType { return table[0] },
		},
	)
	return h
}

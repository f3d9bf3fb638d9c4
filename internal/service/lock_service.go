package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ideathon-be/pkg/logger"
	"ideathon-be/pkg/redis"

	"github.com/google/uuid"
)

// ErrTeamBusy is returned when a team lock could not be acquired in time
var ErrTeamBusy = errors.New("team is busy, try again")

const lockRetryInterval = 25 * time.Millisecond

// lockService serialises writes per team. With Redis the lock spans every
// process; without it the lock is local to this one.
type lockService struct {
	redisClient *redis.Client
	ttl         time.Duration
	wait        time.Duration
	logger      *logger.Logger

	mu    sync.Mutex
	local map[string]chan struct{}
}

// NewLockService creates a team lock service. redisClient may be nil.
func NewLockService(redisClient *redis.Client, ttl, wait time.Duration, logger *logger.Logger) LockService {
	return &lockService{
		redisClient: redisClient,
		ttl:         ttl,
		wait:        wait,
		logger:      logger,
		local:       make(map[string]chan struct{}),
	}
}

// Acquire blocks until the team lock is held, wait elapses or ctx is done.
// A free lock is always taken, even with a zero wait.
func (l *lockService) Acquire(ctx context.Context, teamID string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	releaseLocal, err := l.acquireLocal(waitCtx, teamID)
	if err != nil {
		return nil, err
	}
	if l.redisClient == nil {
		return releaseLocal, nil
	}

	releaseRemote, err := l.acquireRemote(ctx, waitCtx, teamID)
	if err != nil {
		releaseLocal()
		return nil, err
	}
	return func() {
		releaseRemote()
		releaseLocal()
	}, nil
}

func (l *lockService) acquireLocal(ctx context.Context, teamID string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.local[teamID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.local[teamID] = ch
	}
	l.mu.Unlock()

	var once sync.Once
	release := func() { once.Do(func() { <-ch }) }

	select {
	case ch <- struct{}{}:
		return release, nil
	default:
	}

	select {
	case ch <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return nil, ErrTeamBusy
	}
}

// acquireRemote makes its first attempt on ctx and retries until waitCtx is done
func (l *lockService) acquireRemote(ctx, waitCtx context.Context, teamID string) (func(), error) {
	key := l.redisClient.KeyBuilder.KeyTeamLock(teamID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for attemptCtx := ctx; ; attemptCtx = waitCtx {
		ok, err := l.redisClient.AcquireLock(attemptCtx, key, token, l.ttl)
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, ErrTeamBusy
			}
			return nil, fmt.Errorf("failed to acquire team lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			l.logger.WithField("team_id", teamID).Warn("Timed out waiting for team lock")
			return nil, ErrTeamBusy
		}
	}

	return func() {
		// The caller's ctx may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		released, err := l.redisClient.ReleaseLock(releaseCtx, key, token)
		if err != nil {
			l.logger.WithError(err).WithField("team_id", teamID).Warn("Failed to release team lock")
			return
		}
		if !released {
			l.logger.WithField("team_id", teamID).Warn("Team lock expired before release")
		}
	}, nil
}

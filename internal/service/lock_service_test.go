package service

import (
	"context"
	"testing"
	"time"

	"ideathon-be/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	locks := NewLockService(nil, time.Second, 50*time.Millisecond, logger.NewNop())
	ctx := context.Background()

	unlock, err := locks.Acquire(ctx, "team-1")
	require.NoError(t, err)

	_, err = locks.Acquire(ctx, "team-1")
	assert.ErrorIs(t, err, ErrTeamBusy)

	other, err := locks.Acquire(ctx, "team-2")
	require.NoError(t, err)
	other()

	unlock()
	unlock() // releasing twice is harmless

	again, err := locks.Acquire(ctx, "team-1")
	require.NoError(t, err)
	again()
}

func TestZeroWaitTakesFreeLock(t *testing.T) {
	_, client := newTestRedis(t)
	tests := []struct {
		name  string
		locks LockService
	}{
		{name: "local", locks: NewLockService(nil, 5*time.Second, 0, logger.NewNop())},
		{name: "redis", locks: NewLockService(client, 5*time.Second, 0, logger.NewNop())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 200; i++ {
				unlock, err := tt.locks.Acquire(ctx, "team-1")
				require.NoError(t, err, "attempt %d", i)
				unlock()
			}

			unlock, err := tt.locks.Acquire(ctx, "team-1")
			require.NoError(t, err)
			_, err = tt.locks.Acquire(ctx, "team-1")
			assert.ErrorIs(t, err, ErrTeamBusy)
			unlock()
		})
	}
}

func TestRedisLock(t *testing.T) {
	mr, client := newTestRedis(t)
	locks := NewLockService(client, 5*time.Second, 100*time.Millisecond, logger.NewNop())
	ctx := context.Background()
	key := client.KeyBuilder.KeyTeamLock("team-1")

	unlock, err := locks.Acquire(ctx, "team-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	unlock()
	assert.False(t, mr.Exists(key))

	// another process holding the key blocks us even without the local lock
	require.NoError(t, mr.Set(key, "someone-else"))

	_, err = locks.Acquire(ctx, "team-1")
	assert.ErrorIs(t, err, ErrTeamBusy)

	mr.Del(key)
	unlock, err = locks.Acquire(ctx, "team-1")
	require.NoError(t, err)
	unlock()
}

func TestRedisLockWaitsForRelease(t *testing.T) {
	_, client := newTestRedis(t)
	locks := NewLockService(client, 5*time.Second, 2*time.Second, logger.NewNop())
	ctx := context.Background()

	unlock, err := locks.Acquire(ctx, "team-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locks.Acquire(ctx, "team-1")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	time.Sleep(50 * time.Millisecond)
	unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquirer never got the lock")
	}
}

func TestExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	mr, client := newTestRedis(t)
	locks := NewLockService(client, time.Second, 100*time.Millisecond, logger.NewNop())
	key := client.KeyBuilder.KeyTeamLock("team-1")

	unlock, err := locks.Acquire(context.Background(), "team-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(key, "new-owner"))

	unlock()
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "new-owner", got)
}

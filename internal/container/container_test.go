package container

import (
	"context"
	"testing"
	"time"

	"ideathon-be/internal/config"
	"ideathon-be/internal/service"
	"ideathon-be/pkg/database"
	"ideathon-be/pkg/logger"
	"ideathon-be/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopTx struct{}

func (noopTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		Environment:          "test",
		JWTSecret:            "test-secret",
		TickInterval:         time.Minute,
		LockTTL:              time.Second,
		LockWait:             100 * time.Millisecond,
		InitialTokens:        3,
		NotificationFeedSize: 10,
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	tests := []struct {
		name        string
		infra       *Infrastructure
		expectRedis bool
		expectError bool
	}{
		{
			name:        "with Redis",
			infra:       &Infrastructure{DB: &database.PostgresDB{}, Tx: noopTx{}, RedisClient: client},
			expectRedis: true,
		},
		{
			name:  "without Redis",
			infra: &Infrastructure{DB: &database.PostgresDB{}, Tx: noopTx{}},
		},
		{
			name:        "without database",
			infra:       &Infrastructure{Tx: noopTx{}},
			expectError: true,
		},
		{
			name:        "nil infrastructure",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			testLogger := logger.NewNop()

			c, err := New(cfg, testLogger, tt.infra)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)
			assert.Equal(t, cfg, c.GetConfig())
			assert.Equal(t, testLogger, c.GetLogger())
			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.Implements(t, (*service.AuthService)(nil), c.GetAuthService())
			assert.Implements(t, (*service.SprintService)(nil), c.GetSprintService())
			assert.NotNil(t, c.Services.User)
			assert.NotNil(t, c.Services.Notification)
			assert.NotNil(t, c.Repositories.Team)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	c, err := New(testConfig(), logger.NewNop(), &Infrastructure{DB: &database.PostgresDB{}, Tx: noopTx{}, RedisClient: client})
	require.NoError(t, err)

	status := c.HealthCheck(context.Background())
	assert.Equal(t, "unavailable", status["database"])
	assert.Equal(t, "healthy", status["redis"])

	mr.SetError("server down")
	assert.Equal(t, "unhealthy", c.HealthCheck(context.Background())["redis"])
}

func TestCloseStopsTicker(t *testing.T) {
	c, err := New(testConfig(), logger.NewNop(), &Infrastructure{DB: &database.PostgresDB{}, Tx: noopTx{}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.GetSprintService().Start(ctx))
	assert.NoError(t, c.Close(ctx))
	// second close is a no-op for the ticker
	assert.NoError(t, c.Close(ctx))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/redis"

	"go.uber.org/zap"
)

// CacheService fronts team state with a Redis cache-aside layer. A nil
// Redis client turns every call into a pass-through.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetTeamWithCache retrieves team state cache-first. The cached copy carries
// its version, so a stale hit surfaces as a version conflict on save.
func (c *CacheService) GetTeamWithCache(ctx context.Context, teamID string, dbFallback func(ctx context.Context, id string) (*domain.Team, error)) (*domain.Team, error) {
	if c.redis == nil {
		return dbFallback(ctx, teamID)
	}
	cacheKey := c.redis.KeyBuilder.KeyTeamState(teamID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var team domain.Team
		if marshalErr := json.Unmarshal([]byte(cachedData), &team); marshalErr == nil {
			c.logger.Debug("Team cache hit", zap.String("team_id", teamID), zap.Int64("version", team.Version))
			return &team, nil
		} else {
			c.logger.Warn("Team cache corrupted, falling back to database",
				zap.String("team_id", teamID),
				zap.Error(marshalErr))
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Team cache error, falling back to database",
			zap.String("team_id", teamID),
			zap.Error(err))
	}

	c.logger.Debug("Team cache miss", zap.String("team_id", teamID))
	team, err := dbFallback(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("database fallback failed: %w", err)
	}

	c.CacheTeam(ctx, team)
	return team, nil
}

// CacheTeam stores the team state. Failures are logged and swallowed.
func (c *CacheService) CacheTeam(ctx context.Context, team *domain.Team) {
	if c.redis == nil || team == nil {
		return
	}
	teamData, err := json.Marshal(team)
	if err != nil {
		c.logger.Error("Failed to marshal team for caching",
			zap.String("team_id", team.ID),
			zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyTeamState(team.ID), string(teamData), redis.TTLTeamState); err != nil {
		c.logger.Error("Failed to cache team data",
			zap.String("team_id", team.ID),
			zap.Error(err))
	} else {
		c.logger.Debug("Team cached successfully", zap.String("team_id", team.ID), zap.Int64("version", team.Version))
	}
}

// InvalidateTeam drops the cached team state
func (c *CacheService) InvalidateTeam(ctx context.Context, teamID string) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyTeamState(teamID)); err != nil {
		c.logger.Error("Failed to invalidate team cache",
			zap.String("team_id", teamID),
			zap.Error(err))
		return err
	}
	c.logger.Debug("Team cache invalidated", zap.String("team_id", teamID))
	return nil
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

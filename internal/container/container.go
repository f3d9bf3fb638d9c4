package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ideathon-be/internal/config"
	"ideathon-be/internal/repository"
	"ideathon-be/internal/service"
	"ideathon-be/internal/service/auth"
	"ideathon-be/pkg/database"
	"ideathon-be/pkg/logger"
	"ideathon-be/pkg/redis"
)

// Infrastructure holds the external connections services are built on
type Infrastructure struct {
	DB          *database.PostgresDB
	Tx          database.TxManager
	RedisClient *redis.Client
}

// Open connects to Postgres and, when configured, Redis. A Redis failure is
// logged and the server runs without cache, distributed lock or live feed.
func Open(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Infrastructure, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		return nil, err
	}
	tx, err := database.NewTransactionManager(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transaction manager: %w", err)
	}
	logger.Info("Database connection established")

	infra := &Infrastructure{DB: db, Tx: tx}
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Named("redis").Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			infra.RedisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}
	return infra, nil
}

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *logger.Logger
	Infrastructure *Infrastructure
	Repositories   *repository.Repositories
	Cache          *service.CacheService
	Services       *service.Services
}

// New wires repositories and services over infra
func New(cfg *config.Config, logger *logger.Logger, infra *Infrastructure) (*Container, error) {
	if infra == nil || infra.DB == nil || infra.Tx == nil {
		return nil, fmt.Errorf("database infrastructure is required")
	}

	repos := &repository.Repositories{
		Team:         repository.NewTeamRepository(infra.DB),
		User:         repository.NewUserRepository(infra.DB),
		Consultancy:  repository.NewConsultancyRepository(infra.DB),
		Rating:       repository.NewRatingRepository(infra.DB),
		Notification: repository.NewNotificationRepository(infra.DB),
	}

	cache := service.NewCacheService(infra.RedisClient, logger.Named("cache").Logger)
	locks := service.NewLockService(infra.RedisClient, cfg.LockTTL, cfg.LockWait, logger.Named("lock"))
	notifications := service.NewNotificationService(repos.Notification, infra.RedisClient, cfg.NotificationFeedSize, logger.Named("notification"))

	sprints := service.NewSprintService(repos, infra.Tx, locks, cache, notifications, logger.Named("sprint"), service.SprintConfig{
		InitialTokens: cfg.InitialTokens,
		MaxTeamSize:   cfg.MaxTeamSize,
		TickInterval:  cfg.TickInterval,
	})

	services := &service.Services{
		Auth:         auth.NewService(cfg.JWTSecret, logger.Named("auth")),
		User:         service.NewUserService(repos.User, logger.Named("user")),
		Sprint:       sprints,
		Notification: notifications,
	}

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Infrastructure: infra,
		Repositories:   repos,
		Cache:          cache,
		Services:       services,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetSprintService returns the sprint service
func (c *Container) GetSprintService() service.SprintService {
	return c.Services.Sprint
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.Infrastructure.RedisClient != nil
}

// HealthCheck reports each backing store; a missing Redis is "disabled"
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"database": "healthy", "redis": "disabled"}

	switch err := c.Infrastructure.DB.Health(ctx); {
	case errors.Is(err, database.ErrNoPool):
		status["database"] = "unavailable"
	case err != nil:
		c.Logger.WithError(err).Warn("Database health check failed")
		status["database"] = "unhealthy"
	default:
		stats := c.Infrastructure.DB.Stats()
		status["database_connections"] = fmt.Sprintf("%d/%d", stats["acquired"], stats["max"])
	}

	if c.HasRedis() {
		status["redis"] = "healthy"
		if err := c.Cache.HealthCheck(ctx); err != nil {
			c.Logger.WithError(err).Warn("Redis health check failed")
			status["redis"] = "unhealthy"
		}
	}
	return status
}

// Close stops the sprint ticker and releases connections
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if err := c.Services.Sprint.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sprint ticker: %w", err))
	}

	if c.HasRedis() {
		if err := c.Infrastructure.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.Infrastructure.DB.Pool != nil {
		healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.Infrastructure.DB.Health(healthCtx); err != nil {
			c.Logger.WithError(err).Warn("Database health check failed before closing")
		}
		cancel()
		c.Infrastructure.DB.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("close completed with %d errors: %v", len(errs), errs)
	}
	return nil
}

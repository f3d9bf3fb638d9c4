package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	DatabaseURL    string
	DBMaxConns     int
	DBMinConns     int
	RedisURL       string
	JWTSecret      string
	Environment    string

	// Sprint engine
	TickInterval  time.Duration
	LockTTL       time.Duration
	LockWait      time.Duration
	InitialTokens int
	MaxTeamSize   int

	// Notifications kept in each user's live feed
	NotificationFeedSize int

	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		AllowedOrigins:       parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           getIntEnv("DATABASE_MAX_CONNS", 10),
		DBMinConns:           getIntEnv("DATABASE_MIN_CONNS", 2),
		RedisURL:             getEnv("REDIS_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		Environment:          getEnv("ENVIRONMENT", "production"),
		TickInterval:         getDurationEnv("SPRINT_TICK_INTERVAL", time.Minute),
		LockTTL:              getDurationEnv("SPRINT_LOCK_TTL", 5*time.Second),
		LockWait:             getDurationEnv("SPRINT_LOCK_WAIT", 2*time.Second),
		InitialTokens:        getIntEnv("SPRINT_INITIAL_TOKENS", 3),
		MaxTeamSize:          getIntEnv("SPRINT_MAX_TEAM_SIZE", 5),
		NotificationFeedSize: getIntEnv("NOTIFICATION_FEED_SIZE", 100),
		ShutdownTimeout:      getDurationEnv("SHUTDOWN_TIMEOUT", 25*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the server misbehave
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("SPRINT_TICK_INTERVAL must be positive")
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		return fmt.Errorf("SPRINT_LOCK_TTL and SPRINT_LOCK_WAIT must be positive")
	}
	if c.InitialTokens < 0 {
		return fmt.Errorf("SPRINT_INITIAL_TOKENS must not be negative")
	}
	if c.MaxTeamSize <= 0 {
		return fmt.Errorf("SPRINT_MAX_TEAM_SIZE must be positive")
	}
	if c.NotificationFeedSize <= 0 {
		return fmt.Errorf("NOTIFICATION_FEED_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in a local environment
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s") or plain seconds
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

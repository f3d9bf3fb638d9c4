package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging":
		prefix = "staging"
	case "test":
		prefix = "test"
	}
	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyTeamState(teamID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeamState, teamID))
}

func (kb *KeyBuilder) KeyTeamLock(teamID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeamLock, teamID))
}

func (kb *KeyBuilder) KeyUserFeed(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyUserFeed, userID))
}

package domain

import "time"

// PowerUpType identifies a Legacy Vault item
type PowerUpType string

const (
	PowerUpRoadblockShield  PowerUpType = "roadblock_shield"
	PowerUpDoubleSpark      PowerUpType = "double_spark"
	PowerUpMasterConsultant PowerUpType = "master_consultant"
	PowerUpTimeWarp         PowerUpType = "time_warp"
	PowerUpInsightBoost     PowerUpType = "insight_boost"
	PowerUpTeamSync         PowerUpType = "team_sync"
)

// Rarity grades a power-up
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// PowerUp is a persistent, single-use item owned by a user
type PowerUp struct {
	ID          string      `json:"id"`
	Type        PowerUpType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Rarity      Rarity      `json:"rarity"`
	OwnerID     string      `json:"owner_id"`
	EventID     string      `json:"event_id,omitempty"`
	EarnedAt    time.Time   `json:"earned_at"`
	UsedAt      *time.Time  `json:"used_at,omitempty"`
}

// Used reports whether the power-up has been consumed
func (p *PowerUp) Used() bool {
	return p.UsedAt != nil
}

// BadgeType identifies a trophy case badge
type BadgeType string

const (
	BadgeBridgeBuilder     BadgeType = "bridge_builder"
	BadgeMVP               BadgeType = "mvp"
	BadgeConsensusChampion BadgeType = "consensus_champion"
	BadgeRapidResponder    BadgeType = "rapid_responder"
	BadgeInclusionAdvocate BadgeType = "inclusion_advocate"
	BadgeSparkIgniter      BadgeType = "spark_igniter"
	BadgeMentor            BadgeType = "mentor"
	BadgeInnovator         BadgeType = "innovator"
)

// BadgeRarity grades a badge
type BadgeRarity string

const (
	BadgeBronze   BadgeRarity = "bronze"
	BadgeSilver   BadgeRarity = "silver"
	BadgeGold     BadgeRarity = "gold"
	BadgePlatinum BadgeRarity = "platinum"
)

// Badge is an earned achievement
type Badge struct {
	ID          string      `json:"id"`
	Type        BadgeType   `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Rarity      BadgeRarity `json:"rarity"`
	EventID     string      `json:"event_id"`
	EarnedAt    time.Time   `json:"earned_at"`
}

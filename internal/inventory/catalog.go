// Package inventory owns the catalog of earnable items and the rules for
// granting, equipping and consuming them in a user's Legacy Vault.
package inventory

import "ideathon-be/internal/domain"

// Item is a catalog entry for a power-up type
type Item struct {
	Type        domain.PowerUpType
	Name        string
	Description string
	Rarity      domain.Rarity
}

var powerUps = map[domain.PowerUpType]Item{
	domain.PowerUpRoadblockShield: {
		Type:        domain.PowerUpRoadblockShield,
		Name:        "Roadblock Shield",
		Description: "Protect your team from one roadblock event",
		Rarity:      domain.RarityRare,
	},
	domain.PowerUpDoubleSpark: {
		Type:        domain.PowerUpDoubleSpark,
		Name:        "Double Spark",
		Description: "Start the next online phase with extra votes",
		Rarity:      domain.RarityEpic,
	},
	domain.PowerUpMasterConsultant: {
		Type:        domain.PowerUpMasterConsultant,
		Name:        "Master Consultant",
		Description: "Earn double points when hired as a consultant",
		Rarity:      domain.RarityLegendary,
	},
	domain.PowerUpTimeWarp: {
		Type:        domain.PowerUpTimeWarp,
		Name:        "Time Warp",
		Description: "Bend the sprint clock in your favour",
		Rarity:      domain.RarityEpic,
	},
	domain.PowerUpInsightBoost: {
		Type:        domain.PowerUpInsightBoost,
		Name:        "Insight Boost",
		Description: "Unlock a hint for the current challenge",
		Rarity:      domain.RarityCommon,
	},
	domain.PowerUpTeamSync: {
		Type:        domain.PowerUpTeamSync,
		Name:        "Team Sync",
		Description: "Align the whole team on a single decision",
		Rarity:      domain.RarityCommon,
	},
}

// lootTable lists what the end-of-sprint loot drop can yield
var lootTable = []domain.PowerUpType{
	domain.PowerUpRoadblockShield,
	domain.PowerUpDoubleSpark,
	domain.PowerUpMasterConsultant,
}

// Lookup returns the catalog entry for t
func Lookup(t domain.PowerUpType) (Item, bool) {
	item, ok := powerUps[t]
	return item, ok
}

// LootTable returns the power-up types a loot drop may contain
func LootTable() []domain.PowerUpType {
	out := make([]domain.PowerUpType, len(lootTable))
	copy(out, lootTable)
	return out
}

type badgeInfo struct {
	Name        string
	Description string
	Rarity      domain.BadgeRarity
}

var badges = map[domain.BadgeType]badgeInfo{
	domain.BadgeBridgeBuilder:     {"Bridge Builder", "Helped another team as a consultant", domain.BadgeSilver},
	domain.BadgeMVP:               {"MVP", "Voted most valuable by teammates", domain.BadgeGold},
	domain.BadgeConsensusChampion: {"Consensus Champion", "Led the team to agreement", domain.BadgeSilver},
	domain.BadgeRapidResponder:    {"Rapid Responder", "Beat a challenge deadline", domain.BadgeBronze},
	domain.BadgeInclusionAdvocate: {"Inclusion Advocate", "Championed accessible design", domain.BadgeGold},
	domain.BadgeSparkIgniter:      {"Spark Igniter", "Submitted a winning question", domain.BadgeBronze},
	domain.BadgeMentor:            {"Mentor", "Guided newcomers through a sprint", domain.BadgePlatinum},
	domain.BadgeInnovator:         {"Innovator", "Delivered the most original solution", domain.BadgePlatinum},
}

package sprint

import "ideathon-be/internal/domain"

var boosts = map[domain.BoostType]domain.Boost{
	domain.BoostDeepFocus: {
		Type:        domain.BoostDeepFocus,
		Name:        "Deep Focus",
		Description: "Block all distractions for 10 minutes. Your team gets a concentration bonus.",
		Cost:        30,
		Duration:    int(BoostDuration.Minutes()),
	},
	domain.BoostAIGhostwriter: {
		Type:        domain.BoostAIGhostwriter,
		Name:        "AI Ghostwriter",
		Description: "Get AI-powered suggestions for your current slide content.",
		Cost:        50,
		Duration:    int(BoostDuration.Minutes()),
	},
	domain.BoostHallShoutout: {
		Type:        domain.BoostHallShoutout,
		Name:        "Hall Shoutout",
		Description: "Broadcast a message to all teams in the hall.",
		Cost:        20,
		Duration:    int(BoostDuration.Minutes()),
	},
}

// LookupBoost returns the shop entry for a boost type
func LookupBoost(t domain.BoostType) (domain.Boost, bool) {
	b, ok := boosts[t]
	return b, ok
}

var milestones = map[domain.MilestoneType]domain.Milestone{
	domain.MilestoneUserResearch:        {Type: domain.MilestoneUserResearch, Name: "User Research", Description: "Complete user persona", DueMinute: 20, Points: 30},
	domain.MilestonePrototypeDraft:      {Type: domain.MilestonePrototypeDraft, Name: "Prototype Draft", Description: "Create solution sketch", DueMinute: 45, Points: 40},
	domain.MilestoneInclusionAudit:      {Type: domain.MilestoneInclusionAudit, Name: "Inclusion Audit", Description: "Review accessibility", DueMinute: 75, Points: 35},
	domain.MilestoneBusinessModel:       {Type: domain.MilestoneBusinessModel, Name: "Business Model", Description: "Outline how the idea sustains itself", DueMinute: 60, Points: 35},
	domain.MilestoneTechnicalSpec:       {Type: domain.MilestoneTechnicalSpec, Name: "Technical Spec", Description: "Describe how it would be built", DueMinute: 90, Points: 40},
	domain.MilestonePresentationOutline: {Type: domain.MilestonePresentationOutline, Name: "Presentation Outline", Description: "Draft the pitch structure", DueMinute: 105, Points: 30},
}

// LookupMilestone returns the catalog template for a milestone type
func LookupMilestone(t domain.MilestoneType) (domain.Milestone, bool) {
	m, ok := milestones[t]
	return m, ok
}

// Shop returns the purchasable boosts ordered by cost
func Shop() []domain.Boost {
	out := make([]domain.Boost, 0, len(boosts))
	for _, t := range []domain.BoostType{domain.BoostHallShoutout, domain.BoostDeepFocus, domain.BoostAIGhostwriter} {
		out = append(out, boosts[t])
	}
	return out
}

package inventory

import (
	"time"

	"ideathon-be/internal/domain"
)

// NewPowerUp mints a power-up of type t owned by ownerID
func NewPowerUp(id string, t domain.PowerUpType, ownerID, eventID string, now time.Time) (domain.PowerUp, error) {
	item, ok := Lookup(t)
	if !ok {
		return domain.PowerUp{}, domain.Reject(domain.CodeInvalidInput, "unknown power-up type %q", t)
	}
	return domain.PowerUp{
		ID:          id,
		Type:        item.Type,
		Name:        item.Name,
		Description: item.Description,
		Rarity:      item.Rarity,
		OwnerID:     ownerID,
		EventID:     eventID,
		EarnedAt:    now,
	}, nil
}

// Grant adds p to the user's vault
func Grant(u *domain.User, p domain.PowerUp) {
	p.OwnerID = u.ID
	u.PowerUps = append(u.PowerUps, p)
}

// Equippable returns the user's power-up by ID if it may still be equipped
func Equippable(u *domain.User, powerUpID string) (*domain.PowerUp, error) {
	p, ok := u.PowerUp(powerUpID)
	if !ok {
		return nil, domain.Reject(domain.CodePowerUpMissing, "power-up %s not in vault", powerUpID)
	}
	if p.Used() {
		return nil, domain.Reject(domain.CodePowerUpUsed, "power-up %s already used", powerUpID)
	}
	return p, nil
}

// MarkUsed stamps usedAt on p. Using is terminal.
func MarkUsed(p *domain.PowerUp, now time.Time) error {
	if p.Used() {
		return domain.Reject(domain.CodePowerUpUsed, "power-up %s already used", p.ID)
	}
	t := now
	p.UsedAt = &t
	return nil
}

// AwardBadge adds a badge of type t to the user's trophy case
func AwardBadge(u *domain.User, id string, t domain.BadgeType, eventID string, now time.Time) domain.Badge {
	info := badges[t]
	b := domain.Badge{
		ID:          id,
		Type:        t,
		Name:        info.Name,
		Description: info.Description,
		Rarity:      info.Rarity,
		EventID:     eventID,
		EarnedAt:    now,
	}
	u.Badges = append(u.Badges, b)
	return b
}

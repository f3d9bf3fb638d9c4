package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/database"
)

// teamRepository stores the team aggregate as a JSONB document. The columns
// next to it are the ones queries filter on.
type teamRepository struct {
	db *database.PostgresDB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *database.PostgresDB) TeamRepository {
	return &teamRepository{db: db}
}

// GetByID retrieves a team by ID
func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `SELECT state, version FROM teams WHERE id = $1`
	team, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return team, nil
}

// GetByMember retrieves the team userID belongs to in an event
func (r *teamRepository) GetByMember(ctx context.Context, eventID, userID string) (*domain.Team, error) {
	member, err := json.Marshal([]map[string]string{{"user_id": userID}})
	if err != nil {
		return nil, err
	}
	query := `
		SELECT state, version FROM teams
		WHERE event_id = $1 AND state->'members' @> $2::jsonb
		LIMIT 1
	`
	team, err := r.scanOne(ctx, query, eventID, string(member))
	if err != nil {
		return nil, fmt.Errorf("failed to get team of user %s: %w", userID, err)
	}
	return team, nil
}

func (r *teamRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.Team, error) {
	var (
		state   []byte
		version int64
	)
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&state, &version); err != nil {
		return nil, handleNoRows(err)
	}
	var team domain.Team
	if err := json.Unmarshal(state, &team); err != nil {
		return nil, fmt.Errorf("failed to decode team state: %w", err)
	}
	team.Version = version
	return &team, nil
}

// Create inserts a new team at version 1
func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	now := time.Now().UTC()
	if team.CreatedAt.IsZero() {
		team.CreatedAt = now
	}
	team.UpdatedAt = now
	team.Version = 1

	state, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to encode team state: %w", err)
	}

	query := `
		INSERT INTO teams (id, name, event_id, state, sprint_start, last_fired_phase_id, awaiting_sweep, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Conn(ctx).Exec(ctx, query,
		team.ID,
		team.Name,
		team.EventID,
		state,
		team.SprintStart,
		team.LastFiredPhaseID,
		team.AwaitingSweep(),
		team.Version,
		team.CreatedAt,
		team.UpdatedAt,
	)
	if err != nil {
		team.Version = 0
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// Save writes the team if its version still matches the stored one. On
// success the team carries the new version.
func (r *teamRepository) Save(ctx context.Context, team *domain.Team) error {
	expected := team.Version
	team.Version = expected + 1
	team.UpdatedAt = time.Now().UTC()

	state, err := json.Marshal(team)
	if err != nil {
		team.Version = expected
		return fmt.Errorf("failed to encode team state: %w", err)
	}

	query := `
		UPDATE teams
		SET name = $2, event_id = $3, state = $4, sprint_start = $5, last_fired_phase_id = $6,
		    awaiting_sweep = $7, version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $9
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query,
		team.ID,
		team.Name,
		team.EventID,
		state,
		team.SprintStart,
		team.LastFiredPhaseID,
		team.AwaitingSweep(),
		team.UpdatedAt,
		expected,
	)
	if err != nil {
		team.Version = expected
		return fmt.Errorf("failed to save team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		team.Version = expected
		return r.missOrConflict(ctx, team.ID)
	}
	return nil
}

func (r *teamRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := r.db.Conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check team existence: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// ActiveIDs lists started teams that have not fired finalPhaseID or still
// hold an open vote, roadblock, challenge or boost
func (r *teamRepository) ActiveIDs(ctx context.Context, finalPhaseID string) ([]string, error) {
	query := `
		SELECT id FROM teams
		WHERE sprint_start IS NOT NULL AND (last_fired_phase_id <> $1 OR awaiting_sweep)
		ORDER BY sprint_start
	`
	rows, err := r.db.Conn(ctx).Query(ctx, query, finalPhaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active teams: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return ids, nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

type userRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, username, display_name, role, power_ups, badges,
	events_participated, consultancies_provided, mvp_wins, version, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		powerUps []byte
		badges   []byte
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.DisplayName,
		&u.Role,
		&powerUps,
		&badges,
		&u.EventsParticipated,
		&u.ConsultanciesProvided,
		&u.MVPWins,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, handleNoRows(err)
	}
	if err := json.Unmarshal(powerUps, &u.PowerUps); err != nil {
		return nil, fmt.Errorf("failed to decode power-ups: %w", err)
	}
	if err := json.Unmarshal(badges, &u.Badges); err != nil {
		return nil, fmt.Errorf("failed to decode badges: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

// GetByIDs retrieves the users that exist among ids
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.Conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Ensure creates the user on first sight and returns the stored row.
// Profile fields of an existing user are refreshed; the vault is left alone.
func (r *userRepository) Ensure(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (id, email, username, display_name, role, power_ups, badges, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '[]', '[]', 1, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	u, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.Role,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", user.ID, err)
	}
	return u, nil
}

// Save writes the user with an optimistic version check
func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	powerUps, err := json.Marshal(nonNil(user.PowerUps))
	if err != nil {
		return fmt.Errorf("failed to encode power-ups: %w", err)
	}
	badges, err := json.Marshal(nonNil(user.Badges))
	if err != nil {
		return fmt.Errorf("failed to encode badges: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE users
		SET power_ups = $2, badges = $3, events_participated = $4, consultancies_provided = $5,
		    mvp_wins = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $8
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query,
		user.ID,
		powerUps,
		badges,
		user.EventsParticipated,
		user.ConsultanciesProvided,
		user.MVPWins,
		now,
		user.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to save user %s: %w", user.ID, ErrVersionConflict)
	}
	user.Version++
	user.UpdatedAt = now
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

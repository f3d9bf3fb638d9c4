package repository

import (
	"context"
	"fmt"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

type consultancyRepository struct {
	db *database.PostgresDB
}

// NewConsultancyRepository creates a new consultancy request repository
func NewConsultancyRepository(db *database.PostgresDB) ConsultancyRepository {
	return &consultancyRepository{db: db}
}

const consultancyColumns = `id, event_id, from_team_id, from_team_name, requested_by, to_user_id,
	superpower_needed, description, status, created_at, responded_at, completed_at, points_earned`

func scanConsultancy(row pgx.Row) (*domain.ConsultancyRequest, error) {
	var c domain.ConsultancyRequest
	err := row.Scan(
		&c.ID,
		&c.EventID,
		&c.FromTeamID,
		&c.FromTeamName,
		&c.RequestedBy,
		&c.ToUserID,
		&c.SuperpowerNeeded,
		&c.Description,
		&c.Status,
		&c.CreatedAt,
		&c.RespondedAt,
		&c.CompletedAt,
		&c.PointsEarned,
	)
	if err != nil {
		return nil, handleNoRows(err)
	}
	return &c, nil
}

func (r *consultancyRepository) Create(ctx context.Context, c *domain.ConsultancyRequest) error {
	query := `
		INSERT INTO consultancy_requests (` + consultancyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Conn(ctx).Exec(ctx, query,
		c.ID,
		c.EventID,
		c.FromTeamID,
		c.FromTeamName,
		c.RequestedBy,
		c.ToUserID,
		c.SuperpowerNeeded,
		c.Description,
		c.Status,
		c.CreatedAt,
		c.RespondedAt,
		c.CompletedAt,
		c.PointsEarned,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultancy request: %w", err)
	}
	return nil
}

func (r *consultancyRepository) GetByID(ctx context.Context, id string) (*domain.ConsultancyRequest, error) {
	query := `SELECT ` + consultancyColumns + ` FROM consultancy_requests WHERE id = $1`
	c, err := scanConsultancy(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get consultancy request %s: %w", id, err)
	}
	return c, nil
}

func (r *consultancyRepository) Update(ctx context.Context, c *domain.ConsultancyRequest) error {
	query := `
		UPDATE consultancy_requests
		SET status = $2, responded_at = $3, completed_at = $4, points_earned = $5
		WHERE id = $1
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query, c.ID, c.Status, c.RespondedAt, c.CompletedAt, c.PointsEarned)
	if err != nil {
		return fmt.Errorf("failed to update consultancy request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *consultancyRepository) ListForUser(ctx context.Context, userID string) ([]*domain.ConsultancyRequest, error) {
	query := `SELECT ` + consultancyColumns + ` FROM consultancy_requests WHERE to_user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultancy requests: %w", err)
	}
	defer rows.Close()

	var out []*domain.ConsultancyRequest
	for rows.Next() {
		c, err := scanConsultancy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan consultancy request: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

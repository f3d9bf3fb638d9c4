package repository

import (
	"context"
	"fmt"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/database"
)

type ratingRepository struct {
	db *database.PostgresDB
}

// NewRatingRepository creates a new peer rating repository
func NewRatingRepository(db *database.PostgresDB) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert records a rating; a repeat rating of the same teammate in the same event overwrites it
func (r *ratingRepository) Upsert(ctx context.Context, rt *domain.TeamRating) error {
	query := `
		INSERT INTO team_ratings (from_user_id, to_user_id, event_id, team_id, rating, feedback, is_mvp_vote, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (from_user_id, to_user_id, event_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			rating = EXCLUDED.rating,
			feedback = EXCLUDED.feedback,
			is_mvp_vote = EXCLUDED.is_mvp_vote,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		rt.FromUserID,
		rt.ToUserID,
		rt.EventID,
		rt.TeamID,
		rt.Rating,
		rt.Feedback,
		rt.IsMVPVote,
		rt.UpdatedAt,
	).Scan(&rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

func (r *ratingRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.TeamRating, error) {
	query := `
		SELECT from_user_id, to_user_id, team_id, event_id, rating, feedback, is_mvp_vote, created_at, updated_at
		FROM team_ratings
		WHERE event_id = $1
		ORDER BY to_user_id, from_user_id
	`
	rows, err := r.db.Conn(ctx).Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var out []*domain.TeamRating
	for rows.Next() {
		var rt domain.TeamRating
		if err := rows.Scan(&rt.FromUserID, &rt.ToUserID, &rt.TeamID, &rt.EventID, &rt.Rating,
			&rt.Feedback, &rt.IsMVPVote, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}

func (r *ratingRepository) MVPTally(ctx context.Context, eventID string) (map[string]int, error) {
	query := `
		SELECT to_user_id, COUNT(*)
		FROM team_ratings
		WHERE event_id = $1 AND is_mvp_vote
		GROUP BY to_user_id
	`
	rows, err := r.db.Conn(ctx).Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally mvp votes: %w", err)
	}
	defer rows.Close()

	tally := make(map[string]int)
	for rows.Next() {
		var (
			userID string
			count  int
		)
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan mvp tally: %w", err)
		}
		tally[userID] = count
	}
	return tally, rows.Err()
}

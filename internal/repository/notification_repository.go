package repository

import (
	"context"
	"fmt"

	"ideathon-be/internal/domain"
	"ideathon-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.PostgresDB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.PostgresDB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts notifications in a single round trip
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	query := `
		INSERT INTO notifications (id, user_id, team_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(query, n.ID, n.UserID, n.TeamID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt)
	}
	if err := r.db.Conn(ctx).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, team_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Conn(ctx).Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TeamID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := r.db.Conn(ctx).Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

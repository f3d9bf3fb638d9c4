package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/repository"
	"ideathon-be/pkg/logger"
	"ideathon-be/pkg/redis"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// notificationService persists notifications in Postgres and mirrors them to
// a capped per-user Redis feed for cheap polling.
type notificationService struct {
	repo        repository.NotificationRepository
	redisClient *redis.Client
	feedSize    int64
	logger      *logger.Logger
}

// NewNotificationService creates a notification service. redisClient may be nil.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, feedSize int, logger *logger.Logger) NotificationService {
	if feedSize <= 0 {
		feedSize = defaultNotificationLimit
	}
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		feedSize:    int64(feedSize),
		logger:      logger,
	}
}

// Store writes notifications to the database. Inside a transaction ctx it
// joins that transaction.
func (s *notificationService) Store(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	return nil
}

// Fanout pushes notifications into the recipients' live feeds. It is best
// effort; the database stays the source of truth.
func (s *notificationService) Fanout(ctx context.Context, notifications []domain.Notification) {
	if s.redisClient == nil || len(notifications) == 0 {
		return
	}

	byUser := make(map[string][]interface{})
	order := make([]string, 0)
	for _, n := range notifications {
		data, err := json.Marshal(n)
		if err != nil {
			s.logger.WithError(err).WithField("notification_id", n.ID).Error("Failed to encode notification")
			continue
		}
		if _, ok := byUser[n.UserID]; !ok {
			order = append(order, n.UserID)
		}
		byUser[n.UserID] = append(byUser[n.UserID], string(data))
	}

	for _, userID := range order {
		key := s.redisClient.KeyBuilder.KeyUserFeed(userID)
		if err := s.redisClient.PushCapped(ctx, key, s.feedSize, redis.TTLUserFeed, byUser[userID]...); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to push notification feed")
		}
	}
}

// List returns a user's notifications, newest first
func (s *notificationService) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	limit = clampLimit(limit)
	out, err := s.repo.ListByUser(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Notification{}
	}
	return out, nil
}

// Feed returns the most recent notifications from the live feed, falling
// back to the database when the feed is unavailable or empty.
func (s *notificationService) Feed(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	limit = clampLimit(limit)
	if s.redisClient != nil {
		vals, err := s.redisClient.LRange(ctx, s.redisClient.KeyBuilder.KeyUserFeed(userID), 0, int64(limit-1))
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Notification feed unavailable, falling back to database")
		} else if len(vals) > 0 {
			out := make([]domain.Notification, 0, len(vals))
			for _, v := range vals {
				var n domain.Notification
				if err := json.Unmarshal([]byte(v), &n); err != nil {
					s.logger.WithError(err).WithField("user_id", userID).Warn("Skipping corrupted feed entry")
					continue
				}
				out = append(out, n)
			}
			return out, nil
		}
	}
	return s.List(ctx, userID, limit, false)
}

// MarkRead marks one of the user's notifications as read
func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		return maxNotificationLimit
	}
	return limit
}

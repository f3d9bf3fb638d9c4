package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/repository"
	"ideathon-be/internal/service"
	"ideathon-be/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listCall struct {
	userID string
	limit  int
	unread bool
}

type stubNotifications struct {
	service.NotificationService
	lists []listCall
	read  map[string]string
}

func (s *stubNotifications) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	s.lists = append(s.lists, listCall{userID, limit, unreadOnly})
	return []domain.Notification{{ID: "n1", UserID: userID, Title: "Sprint started"}}, nil
}

func (s *stubNotifications) Feed(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, userID, id string) error {
	if s.read[id] != userID {
		return repository.ErrNotFound
	}
	return nil
}

func newNotificationRouter(n service.NotificationService) http.Handler {
	r := chi.NewRouter()
	NewNotificationHandler(n, logger.NewNop()).Routes(r)
	return r
}

func TestListNotifications(t *testing.T) {
	stub := &stubNotifications{}
	router := newNotificationRouter(stub)

	rec := do(t, router, http.MethodGet, "/notifications?unread=true&limit=5", "", "ana")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []listCall{{"ana", 5, true}}, stub.lists)

	var items []domain.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Sprint started", items[0].Title)

	rec = do(t, router, http.MethodGet, "/notifications?limit=lots", "", "ana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/notifications", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFeedIsNotCached(t *testing.T) {
	router := newNotificationRouter(&stubNotifications{})

	rec := do(t, router, http.MethodGet, "/notifications/feed", "", "ana")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMarkNotificationRead(t *testing.T) {
	router := newNotificationRouter(&stubNotifications{read: map[string]string{"n1": "ana"}})

	rec := do(t, router, http.MethodPost, "/notifications/n1/read", "", "ana")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodPost, "/notifications/n1/read", "", "ben")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

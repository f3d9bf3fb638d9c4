package handler

import (
	"net/http"
	"strconv"

	"ideathon-be/internal/service"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler serves a user's notifications
type NotificationHandler struct {
	notifications service.NotificationService
	logger        *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.Named("notification_handler"),
	}
}

// Routes mounts the notification endpoints on r
func (h *NotificationHandler) Routes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Get("/notifications/feed", h.Feed)
	r.Post("/notifications/{id}/read", h.MarkRead)
}

// List handles GET /notifications?unread=true&limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	limit, appErr := queryInt(r, "limit")
	if appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	items, err := h.notifications.List(r.Context(), claims.Sub, limit, unread)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Feed handles GET /notifications/feed
func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	limit, appErr := queryInt(r, "limit")
	if appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	items, err := h.notifications.Feed(r.Context(), claims.Sub, limit)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, items)
}

// MarkRead handles POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), claims.Sub, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string) (int, *errors.AppError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(key+" must be an integer", nil)
	}
	return n, nil
}

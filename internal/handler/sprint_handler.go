package handler

import (
	"net/http"
	"strconv"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/service"
	"ideathon-be/internal/sprint"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// SprintHandler serves the sprint engine over HTTP
type SprintHandler struct {
	sprints service.SprintService
	users   service.UserService
	logger  *logger.Logger
}

// NewSprintHandler creates a new sprint handler
func NewSprintHandler(sprints service.SprintService, users service.UserService, logger *logger.Logger) *SprintHandler {
	return &SprintHandler{
		sprints: sprints,
		users:   users,
		logger:  logger.Named("sprint_handler"),
	}
}

// Routes mounts the sprint endpoints on r
func (h *SprintHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)

	r.Post("/teams", h.CreateTeam)
	r.Post("/teams/{teamId}/join", h.JoinTeam)

	r.Route("/sprints/{teamId}", func(r chi.Router) {
		r.Get("/", h.GetSprint)
		r.Post("/start", h.StartSprint)
		r.Post("/milestones", h.SelectMilestones)
		r.Post("/milestones/{milestoneId}/complete", h.CompleteMilestone)
		r.Post("/slides/{slideNumber}", h.SubmitSlide)
		r.Post("/boosts", h.PurchaseBoost)
		r.Post("/powerups/{powerUpId}/equip", h.EquipPowerUp)
		r.Post("/roadblock/shield", h.UseShield)
		r.Post("/consultancy", h.HireConsultant)
		r.Post("/votes", h.StartVote)
		r.Post("/votes/{voteId}", h.CastVote)
		r.Post("/ratings", h.RateTeammate)
	})

	r.Get("/consultancy", h.ListConsultancies)
	r.Post("/consultancy/{requestId}/respond", h.RespondConsultancy)
	r.Post("/consultancy/{requestId}/complete", h.CompleteConsultancy)

	r.Get("/events/{eventId}/mvp", h.MVPLeaderboard)
	r.Get("/boosts", h.Shop)
}

// Me handles GET /me
func (h *SprintHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.users.Ensure(r.Context(), claims)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// CreateTeam handles POST /teams
func (h *SprintHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req service.CreateTeamRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	if req.Name == "" || req.EventID == "" {
		respondError(w, r, errors.NewValidationError("name and event_id are required", nil), h.logger)
		return
	}

	if _, err := h.users.Ensure(r.Context(), claims); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	team, err := h.sprints.CreateTeam(r.Context(), claims.Sub, req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, team)
}

type joinTeamRequest struct {
	SuperpowerFocus domain.SuperpowerCategory `json:"superpower_focus"`
}

// JoinTeam handles POST /teams/{teamId}/join
func (h *SprintHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req joinTeamRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}

	if _, err := h.users.Ensure(r.Context(), claims); err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	team, err := h.sprints.JoinTeam(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req.SuperpowerFocus)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// GetSprint handles GET /sprints/{teamId}
func (h *SprintHandler) GetSprint(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.sprints.GetSprint(r.Context(), claims.Sub, chi.URLParam(r, "teamId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// StartSprint handles POST /sprints/{teamId}/start
func (h *SprintHandler) StartSprint(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.sprints.StartSprint(r.Context(), claims.Sub, chi.URLParam(r, "teamId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	h.logger.WithField("team_id", view.Team.ID).Info("Sprint started")
	respondJSON(w, http.StatusOK, view)
}

type selectMilestonesRequest struct {
	Types []domain.MilestoneType `json:"types"`
}

// SelectMilestones handles POST /sprints/{teamId}/milestones
func (h *SprintHandler) SelectMilestones(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req selectMilestonesRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	milestones, err := h.sprints.SelectMilestones(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req.Types)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, milestones)
}

// CompleteMilestone handles POST /sprints/{teamId}/milestones/{milestoneId}/complete
func (h *SprintHandler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	m, err := h.sprints.CompleteMilestone(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), chi.URLParam(r, "milestoneId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type submitSlideRequest struct {
	Content string `json:"content"`
}

// SubmitSlide handles POST /sprints/{teamId}/slides/{slideNumber}
func (h *SprintHandler) SubmitSlide(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "slideNumber"))
	if err != nil {
		respondError(w, r, errors.NewValidationError("slide number must be an integer", nil), h.logger)
		return
	}
	var req submitSlideRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	result, err := h.sprints.SubmitSlide(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), number, req.Content)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Shop handles GET /boosts
func (h *SprintHandler) Shop(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sprint.Shop())
}

type purchaseBoostRequest struct {
	Type domain.BoostType `json:"type"`
}

// PurchaseBoost handles POST /sprints/{teamId}/boosts
func (h *SprintHandler) PurchaseBoost(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req purchaseBoostRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	boost, err := h.sprints.PurchaseBoost(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req.Type)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, boost)
}

// EquipPowerUp handles POST /sprints/{teamId}/powerups/{powerUpId}/equip
func (h *SprintHandler) EquipPowerUp(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.sprints.EquipPowerUp(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), chi.URLParam(r, "powerUpId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UseShield handles POST /sprints/{teamId}/roadblock/shield
func (h *SprintHandler) UseShield(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	rb, err := h.sprints.UseShield(r.Context(), claims.Sub, chi.URLParam(r, "teamId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, rb)
}

// StartVote handles POST /sprints/{teamId}/votes
func (h *SprintHandler) StartVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req sprint.VoteRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	vote, err := h.sprints.StartVote(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}

type castVoteRequest struct {
	Option string `json:"option"`
}

// CastVote handles POST /sprints/{teamId}/votes/{voteId}
func (h *SprintHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req castVoteRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	vote, err := h.sprints.CastVote(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), chi.URLParam(r, "voteId"), req.Option)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, vote)
}

// HireConsultant handles POST /sprints/{teamId}/consultancy
func (h *SprintHandler) HireConsultant(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req sprint.HireRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	cr, err := h.sprints.HireConsultant(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, cr)
}

// ListConsultancies handles GET /consultancy
func (h *SprintHandler) ListConsultancies(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	requests, err := h.sprints.ListConsultancies(r.Context(), claims.Sub)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

type respondConsultancyRequest struct {
	Accept bool `json:"accept"`
}

// RespondConsultancy handles POST /consultancy/{requestId}/respond
func (h *SprintHandler) RespondConsultancy(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req respondConsultancyRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	cr, err := h.sprints.RespondConsultancy(r.Context(), claims.Sub, chi.URLParam(r, "requestId"), req.Accept)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, cr)
}

// CompleteConsultancy handles POST /consultancy/{requestId}/complete
func (h *SprintHandler) CompleteConsultancy(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	cr, err := h.sprints.CompleteConsultancy(r.Context(), claims.Sub, chi.URLParam(r, "requestId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, cr)
}

// RateTeammate handles POST /sprints/{teamId}/ratings
func (h *SprintHandler) RateTeammate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req domain.RateRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, r, appErr, h.logger)
		return
	}
	rating, err := h.sprints.RateTeammate(r.Context(), claims.Sub, chi.URLParam(r, "teamId"), req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, rating)
}

// MVPLeaderboard handles GET /events/{eventId}/mvp
func (h *SprintHandler) MVPLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sprints.MVPLeaderboard(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

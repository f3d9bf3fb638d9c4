package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/middleware"
	"ideathon-be/internal/repository"
	"ideathon-be/internal/service"
	"ideathon-be/pkg/errors"
	"ideathon-be/pkg/logger"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps err onto the error envelope
func respondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	middleware.WriteError(w, r, toAppError(err), log)
}

func toAppError(err error) *errors.AppError {
	if rej, ok := domain.AsRejection(err); ok {
		return errors.NewRejectedError(string(rej.Code), rej.Message)
	}
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError("Resource not found")
	case stderrors.Is(err, repository.ErrVersionConflict):
		return errors.NewConflictError("Team state changed, retry the request", err)
	case stderrors.Is(err, service.ErrTeamBusy):
		return errors.NewConflictError("Team is busy, retry the request", err)
	case stderrors.Is(err, repository.ErrAlreadyExists):
		return errors.NewConflictError("Resource already exists", err)
	}
	return errors.NewInternalError("Internal server error", err)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.NewValidationError("Invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return nil
}

func requireActor(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*domain.AuthClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, errors.NewAuthenticationError("Authentication required"), log)
		return nil, false
	}
	return claims, true
}

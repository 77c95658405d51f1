// Package handlers exposes the core services over a JSON HTTP surface.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorResponse struct {
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	Conflicts []schedule.Conflict `json:"conflicts,omitempty"`
}

// respondError maps the error taxonomy to HTTP statuses. Business-rule
// violations carry enough structure for a specific UI message.
func respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		invalidTransition *models.InvalidTransitionError
		sessionTerminal   *models.SessionTerminalError
		invalidRange      *models.InvalidRangeError
		conflictErr       *schedule.ScheduleConflictError
	)

	switch {
	case errors.As(err, &invalidTransition):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.As(err, &sessionTerminal):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "session_terminal"})
	case errors.As(err, &conflictErr):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "schedule_conflict", Conflicts: conflictErr.Conflicts})
	case errors.As(err, &invalidRange):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_range"})
	case errors.Is(err, models.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	case errors.Is(err, models.ErrDuplicateResolution):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "already_resolved"})
	case errors.Is(err, models.ErrActiveSubscriptionExists):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "active_subscription_exists"})
	case errors.Is(err, models.ErrInvoiceImmutable):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "invoice_immutable"})
	default:
		log.Error("internal error", slog.String("error", err.Error()))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
	}
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body", Code: "bad_request"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "validation_failed"})
		return false
	}
	return true
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/billing"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type SubscriptionsHandler struct {
	subs *billing.Subscriptions
	log  *slog.Logger
}

func NewSubscriptionsHandler(subs *billing.Subscriptions, log *slog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{subs: subs, log: log}
}

func (h *SubscriptionsHandler) Routes(r chi.Router) {
	r.Post("/plans", h.CreatePlan)
	r.Post("/subscriptions", h.Subscribe)
	r.Post("/subscriptions/{id}/deactivate", h.Deactivate)
	r.Get("/students/{id}/subscription", h.ActiveForStudent)
}

type createPlanRequest struct {
	Name              string          `json:"name" validate:"required"`
	HourlyRate        decimal.Decimal `json:"hourly_rate" validate:"required"`
	HoursPerMonth     int             `json:"hours_per_month" validate:"min=0"`
	MaxFreeAbsences   int             `json:"max_free_absences" validate:"min=0"`
	Currency          string          `json:"currency" validate:"required,len=3"`
	Cadence           models.Cadence  `json:"cadence" validate:"required,oneof=month 4-weeks"`
	CadenceMultiplier int             `json:"cadence_multiplier"`
}

func (h *SubscriptionsHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan, err := h.subs.CreatePlan(r.Context(), &models.SubscriptionPlan{
		Name:              req.Name,
		HourlyRate:        req.HourlyRate,
		HoursPerMonth:     req.HoursPerMonth,
		MaxFreeAbsences:   req.MaxFreeAbsences,
		Currency:          req.Currency,
		Cadence:           req.Cadence,
		CadenceMultiplier: req.CadenceMultiplier,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

type subscribeRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	PlanID    uuid.UUID `json:"plan_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
}

func (h *SubscriptionsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), req.StudentID, req.PlanID, req.StartDate)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (h *SubscriptionsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sub, err := h.subs.Deactivate(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionsHandler) ActiveForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Code: "bad_request"})
		return
	}
	sub, err := h.subs.ActiveForStudent(r.Context(), studentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/billing"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type BillingHandler struct {
	calculator *billing.Calculator
	invoicer   *billing.Invoicer
	log        *slog.Logger
}

func NewBillingHandler(calculator *billing.Calculator, invoicer *billing.Invoicer, log *slog.Logger) *BillingHandler {
	return &BillingHandler{calculator: calculator, invoicer: invoicer, log: log}
}

func (h *BillingHandler) Routes(r chi.Router) {
	r.Post("/billing/calculate", h.Calculate)
	r.Post("/billing/invoices", h.GenerateInvoice)
	r.Get("/billing/invoices/{id}", h.GetInvoice)
	r.Get("/billing/students/{id}/invoices", h.ListInvoices)
	r.Post("/billing/invoices/{id}/pay", h.MarkPaid)
	r.Post("/billing/invoices/{id}/cancel", h.CancelInvoice)
}

type calculateRequest struct {
	StudentID      uuid.UUID `json:"student_id" validate:"required"`
	SubscriptionID uuid.UUID `json:"subscription_id" validate:"required"`
	PeriodStart    time.Time `json:"period_start" validate:"required"`
	PeriodEnd      time.Time `json:"period_end" validate:"required"`
}

// Calculate returns the invoice-ready figure for a student and period. An
// empty period is an expected case and comes back as a no-data envelope, not
// an error.
func (h *BillingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	calc, err := h.calculator.Calculate(r.Context(), req.StudentID, req.SubscriptionID, req.PeriodStart, req.PeriodEnd)
	if errors.Is(err, models.ErrNoBillingData) {
		respondJSON(w, http.StatusOK, map[string]any{"no_billing_data": true})
		return
	}
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, calc)
}

func (h *BillingHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	calc, err := h.calculator.Calculate(r.Context(), req.StudentID, req.SubscriptionID, req.PeriodStart, req.PeriodEnd)
	if errors.Is(err, models.ErrNoBillingData) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no billing data for period", Code: "no_billing_data"})
		return
	}
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	inv, err := h.invoicer.Generate(r.Context(), calc)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoicer.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (h *BillingHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Code: "bad_request"})
		return
	}
	invoices, err := h.invoicer.ListByStudent(r.Context(), studentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *BillingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.invoicer.MarkPaid(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": models.InvoicePaid})
}

func (h *BillingHandler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.invoicer.Cancel(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": models.InvoiceCancelled})
}

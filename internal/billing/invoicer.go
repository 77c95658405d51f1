package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
)

// DefaultDueDays is the payment window granted on a fresh invoice.
const DefaultDueDays = 30

type Invoicer struct {
	invoices store.InvoiceStore
	dueDays  int
	log      *slog.Logger
}

func NewInvoicer(invoices store.InvoiceStore, dueDays int, log *slog.Logger) *Invoicer {
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}
	return &Invoicer{invoices: invoices, dueDays: dueDays, log: log}
}

// Generate snapshots a billing calculation into an immutable invoice. The
// number comes from the store's serialized sequence, so concurrent calls can
// never produce a duplicate.
func (i *Invoicer) Generate(ctx context.Context, calc *models.BillingCalculation) (*models.Invoice, error) {
	seq, err := i.invoices.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	now := time.Now().UTC()
	inv := &models.Invoice{
		ID:                  uuid.New(),
		Number:              fmt.Sprintf("INV-%03d", seq),
		StudentID:           calc.StudentID,
		SubscriptionID:      calc.SubscriptionID,
		PeriodStart:         calc.PeriodStart,
		PeriodEnd:           calc.PeriodEnd,
		SessionsScheduled:   calc.SessionsScheduled,
		SessionsAttended:    calc.SessionsAttended,
		TotalHoursScheduled: calc.TotalHoursScheduled,
		TotalHoursAttended:  calc.TotalHoursAttended,
		FreeAbsencesUsed:    calc.FreeAbsencesUsed,
		BillableHours:       calc.BillableHours,
		HourlyRate:          calc.HourlyRate,
		TotalAmount:         calc.TotalAmount,
		Currency:            calc.Currency,
		Status:              models.InvoiceDraft,
		IssuedAt:            now,
		DueDate:             now.AddDate(0, 0, i.dueDays),
	}

	if err := i.invoices.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	i.log.InfoContext(ctx, "invoice generated",
		slog.String("number", inv.Number),
		slog.String("student_id", inv.StudentID.String()),
		slog.String("amount", inv.TotalAmount.String()))
	return inv, nil
}

func (i *Invoicer) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return i.invoices.Get(ctx, id)
}

func (i *Invoicer) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Invoice, error) {
	return i.invoices.ListByStudent(ctx, studentID)
}

// MarkPaid moves a draft invoice to paid. Corrections to amounts happen via a
// new invoice, never by editing this one.
func (i *Invoicer) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return i.setStatus(ctx, id, models.InvoicePaid)
}

// Cancel voids an invoice without deleting it.
func (i *Invoicer) Cancel(ctx context.Context, id uuid.UUID) error {
	return i.setStatus(ctx, id, models.InvoiceCancelled)
}

func (i *Invoicer) setStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	inv, err := i.invoices.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != models.InvoiceDraft {
		return models.ErrInvoiceImmutable
	}
	return i.invoices.UpdateStatus(ctx, id, status)
}

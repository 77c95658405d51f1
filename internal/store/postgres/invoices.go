package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type InvoiceStore struct {
	db *sql.DB
}

func NewInvoiceStore(db *sql.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// NextNumber allocates from a database sequence, so concurrent generators on
// any number of instances never collide.
func (s *InvoiceStore) NextNumber(ctx context.Context) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return seq, nil
}

func (s *InvoiceStore) Insert(ctx context.Context, inv *models.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, number, student_id, subscription_id, period_start, period_end,
			sessions_scheduled, sessions_attended, total_hours_scheduled, total_hours_attended,
			free_absences_used, billable_hours, hourly_rate, total_amount, currency,
			status, issued_at, due_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		inv.ID, inv.Number, inv.StudentID, inv.SubscriptionID, inv.PeriodStart, inv.PeriodEnd,
		inv.SessionsScheduled, inv.SessionsAttended, inv.TotalHoursScheduled, inv.TotalHoursAttended,
		inv.FreeAbsencesUsed, inv.BillableHours, inv.HourlyRate, inv.TotalAmount, inv.Currency,
		inv.Status, inv.IssuedAt, inv.DueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, number, student_id, subscription_id, period_start, period_end,
		       sessions_scheduled, sessions_attended, total_hours_scheduled, total_hours_attended,
		       free_absences_used, billable_hours, hourly_rate, total_amount, currency,
		       status, issued_at, due_date
		FROM invoices WHERE id = $1
	`, id).Scan(
		&inv.ID, &inv.Number, &inv.StudentID, &inv.SubscriptionID, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.SessionsScheduled, &inv.SessionsAttended, &inv.TotalHoursScheduled, &inv.TotalHoursAttended,
		&inv.FreeAbsencesUsed, &inv.BillableHours, &inv.HourlyRate, &inv.TotalAmount, &inv.Currency,
		&inv.Status, &inv.IssuedAt, &inv.DueDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice: %w", err)
	}
	return inv, nil
}

func (s *InvoiceStore) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, student_id, subscription_id, period_start, period_end,
		       sessions_scheduled, sessions_attended, total_hours_scheduled, total_hours_attended,
		       free_absences_used, billable_hours, hourly_rate, total_amount, currency,
		       status, issued_at, due_date
		FROM invoices WHERE student_id = $1
		ORDER BY number
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv := &models.Invoice{}
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.StudentID, &inv.SubscriptionID, &inv.PeriodStart, &inv.PeriodEnd,
			&inv.SessionsScheduled, &inv.SessionsAttended, &inv.TotalHoursScheduled, &inv.TotalHoursAttended,
			&inv.FreeAbsencesUsed, &inv.BillableHours, &inv.HourlyRate, &inv.TotalAmount, &inv.Currency,
			&inv.Status, &inv.IssuedAt, &inv.DueDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *InvoiceStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

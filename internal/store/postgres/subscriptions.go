package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, hourly_rate, hours_per_month, max_free_absences, currency, cadence, cadence_multiplier
		FROM subscription_plans WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.HourlyRate, &p.HoursPerMonth, &p.MaxFreeAbsences,
		&p.Currency, &p.Cadence, &p.CadenceMultiplier,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	return p, nil
}

func (s *SubscriptionStore) CreatePlan(ctx context.Context, p *models.SubscriptionPlan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscription_plans (id, name, hourly_rate, hours_per_month, max_free_absences, currency, cadence, cadence_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.HourlyRate, p.HoursPerMonth, p.MaxFreeAbsences, p.Currency, p.Cadence, p.CadenceMultiplier)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) GetSubscription(ctx context.Context, id uuid.UUID) (*models.StudentSubscription, error) {
	sub := &models.StudentSubscription{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, plan_id, start_date, next_payment_date, status, created_at, updated_at
		FROM student_subscriptions WHERE id = $1
	`, id).Scan(
		&sub.ID, &sub.StudentID, &sub.PlanID, &sub.StartDate, &sub.NextPaymentDate,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) CreateSubscription(ctx context.Context, sub *models.StudentSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_subscriptions (id, student_id, plan_id, start_date, next_payment_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sub.ID, sub.StudentID, sub.PlanID, sub.StartDate, sub.NextPaymentDate, sub.Status, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "idx_one_active_subscription_per_student") {
			return models.ErrActiveSubscriptionExists
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) UpdateSubscription(ctx context.Context, sub *models.StudentSubscription) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE student_subscriptions
		SET next_payment_date = $2, status = $3, updated_at = $4
		WHERE id = $1
	`, sub.ID, sub.NextPaymentDate, sub.Status, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
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

func (s *SubscriptionStore) ActiveByStudent(ctx context.Context, studentID uuid.UUID) (*models.StudentSubscription, error) {
	sub := &models.StudentSubscription{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, plan_id, start_date, next_payment_date, status, created_at, updated_at
		FROM student_subscriptions
		WHERE student_id = $1 AND status = 'active'
		LIMIT 1
	`, studentID).Scan(
		&sub.ID, &sub.StudentID, &sub.PlanID, &sub.StartDate, &sub.NextPaymentDate,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active subscription: %w", err)
	}
	return sub, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation on the
// named constraint. SQLSTATE 23505 = unique_violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraint))
	}
	return false
}

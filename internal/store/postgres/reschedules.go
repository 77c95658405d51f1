package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type RescheduleStore struct {
	db *sql.DB
}

func NewRescheduleStore(db *sql.DB) *RescheduleStore {
	return &RescheduleStore{db: db}
}

func (s *RescheduleStore) Create(ctx context.Context, r *models.RescheduleRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reschedule_requests (id, session_id, requested_by, reason, proposed_start, proposed_end, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.SessionID, r.RequestedBy, r.Reason, r.ProposedStart, r.ProposedEnd, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reschedule request: %w", err)
	}
	return nil
}

func (s *RescheduleStore) Get(ctx context.Context, id uuid.UUID) (*models.RescheduleRequest, error) {
	r := &models.RescheduleRequest{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, requested_by, reason, proposed_start, proposed_end, status, resolved_by, resolved_at, created_at
		FROM reschedule_requests WHERE id = $1
	`, id).Scan(
		&r.ID, &r.SessionID, &r.RequestedBy, &r.Reason, &r.ProposedStart, &r.ProposedEnd,
		&r.Status, &r.ResolvedBy, &r.ResolvedAt, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reschedule request: %w", err)
	}
	return r, nil
}

func (s *RescheduleStore) Update(ctx context.Context, r *models.RescheduleRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reschedule_requests SET status = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1
	`, r.ID, r.Status, r.ResolvedBy, r.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update reschedule request: %w", err)
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

func (s *RescheduleStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.RescheduleRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, requested_by, reason, proposed_start, proposed_end, status, resolved_by, resolved_at, created_at
		FROM reschedule_requests WHERE session_id = $1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reschedule requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.RescheduleRequest
	for rows.Next() {
		r := &models.RescheduleRequest{}
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.RequestedBy, &r.Reason, &r.ProposedStart, &r.ProposedEnd,
			&r.Status, &r.ResolvedBy, &r.ResolvedAt, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reschedule request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type UnavailabilityStore struct {
	db *sql.DB
}

func NewUnavailabilityStore(db *sql.DB) *UnavailabilityStore {
	return &UnavailabilityStore{db: db}
}

func (s *UnavailabilityStore) Create(ctx context.Context, w *models.UnavailabilityWindow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teacher_unavailability (id, teacher_id, weekday, start_minute, end_minute, label)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.TeacherID, int(w.Weekday), w.StartMinute, w.EndMinute, w.Label)
	if err != nil {
		return fmt.Errorf("failed to insert unavailability window: %w", err)
	}
	return nil
}

func (s *UnavailabilityStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.UnavailabilityWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, teacher_id, weekday, start_minute, end_minute, label
		FROM teacher_unavailability WHERE teacher_id = $1
		ORDER BY weekday, start_minute
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailability windows: %w", err)
	}
	defer rows.Close()

	var windows []*models.UnavailabilityWindow
	for rows.Next() {
		w := &models.UnavailabilityWindow{}
		var weekday int
		if err := rows.Scan(&w.ID, &w.TeacherID, &weekday, &w.StartMinute, &w.EndMinute, &w.Label); err != nil {
			return nil, fmt.Errorf("failed to scan unavailability window: %w", err)
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Package postgres implements the store interfaces over raw SQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess := &models.Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, class_id, start_time, end_time, status, created_at, updated_at
		FROM sessions WHERE id = $1
	`, id).Scan(
		&sess.ID, &sess.ClassID, &sess.StartTime, &sess.EndTime, &sess.Status,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if err := s.loadParticipants(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) loadParticipants(ctx context.Context, sess *models.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, role, attendance_status
		FROM session_participants
		WHERE session_id = $1
		ORDER BY role, position
	`, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	sess.Attendance = make(map[uuid.UUID]models.AttendanceStatus)
	for rows.Next() {
		var participantID uuid.UUID
		var role string
		var status models.AttendanceStatus
		if err := rows.Scan(&participantID, &role, &status); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if role == "teacher" {
			sess.TeacherIDs = append(sess.TeacherIDs, participantID)
		} else {
			sess.StudentIDs = append(sess.StudentIDs, participantID)
		}
		sess.Attendance[participantID] = status
	}
	return rows.Err()
}

func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, class_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sess.ID, sess.ClassID, sess.StartTime, sess.EndTime, sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := insertParticipants(ctx, tx, sess); err != nil {
		return err
	}
	return tx.Commit()
}

func insertParticipants(ctx context.Context, tx *sql.Tx, sess *models.Session) error {
	insert := func(ids []uuid.UUID, role string) error {
		for i, id := range ids {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_participants (session_id, participant_id, role, position, attendance_status)
				VALUES ($1, $2, $3, $4, $5)
			`, sess.ID, id, role, i, sess.Attendance[id])
			if err != nil {
				return fmt.Errorf("failed to insert %s participant: %w", role, err)
			}
		}
		return nil
	}
	if err := insert(sess.TeacherIDs, "teacher"); err != nil {
		return err
	}
	return insert(sess.StudentIDs, "student")
}

// Update writes the status, times, and every attendance record in one
// transaction, so a transition and its side effect commit together.
func (s *SessionStore) Update(ctx context.Context, sess *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET start_time = $2, end_time = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, sess.ID, sess.StartTime, sess.EndTime, sess.Status, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	for participantID, status := range sess.Attendance {
		_, err := tx.ExecContext(ctx, `
			UPDATE session_participants SET attendance_status = $3
			WHERE session_id = $1 AND participant_id = $2
		`, sess.ID, participantID, status)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SessionStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Session, error) {
	return s.list(ctx, `
		SELECT s.id, s.class_id, s.start_time, s.end_time, s.status, s.created_at, s.updated_at
		FROM sessions s
		JOIN session_participants sp ON sp.session_id = s.id
		WHERE sp.participant_id = $1 AND sp.role = 'teacher'
		ORDER BY s.start_time
	`, teacherID)
}

func (s *SessionStore) ListByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*models.Session, error) {
	return s.list(ctx, `
		SELECT s.id, s.class_id, s.start_time, s.end_time, s.status, s.created_at, s.updated_at
		FROM sessions s
		JOIN session_participants sp ON sp.session_id = s.id
		WHERE sp.participant_id = $1 AND sp.role = 'student'
		  AND s.start_time >= $2 AND s.start_time <= $3
		ORDER BY s.start_time
	`, studentID, from, to)
}

func (s *SessionStore) list(ctx context.Context, query string, args ...any) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess := &models.Session{}
		if err := rows.Scan(&sess.ID, &sess.ClassID, &sess.StartTime, &sess.EndTime,
			&sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sess := range sessions {
		if err := s.loadParticipants(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

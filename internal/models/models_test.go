package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	teacher := uuid.New()
	student := uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	sess, err := NewSession(uuid.New(), start, start.Add(time.Hour),
		[]uuid.UUID{teacher, teacher}, []uuid.UUID{student, student})
	require.NoError(t, err)

	assert.Equal(t, SessionScheduled, sess.Status)
	assert.Len(t, sess.TeacherIDs, 1, "duplicate teachers collapse")
	assert.Len(t, sess.StudentIDs, 1, "duplicate students collapse")

	// One attendance entry per participant, never sparse.
	require.Len(t, sess.Attendance, 2)
	assert.Equal(t, AttendanceScheduled, sess.Attendance[teacher])
	assert.Equal(t, AttendanceScheduled, sess.Attendance[student])
}

func TestNewSessionRejectsBadRange(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	for _, end := range []time.Time{start, start.Add(-time.Minute)} {
		_, err := NewSession(uuid.New(), start, end, []uuid.UUID{uuid.New()}, nil)
		var rangeErr *InvalidRangeError
		require.ErrorAs(t, err, &rangeErr)
	}
}

func TestNewSessionNormalizesToUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, ny)

	sess, err := NewSession(uuid.New(), start, start.Add(time.Hour), []uuid.UUID{uuid.New()}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, sess.StartTime.Location())
	assert.True(t, sess.StartTime.Equal(start))
}

func TestSessionDurationHours(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sess, err := NewSession(uuid.New(), start, start.Add(90*time.Minute), []uuid.UUID{uuid.New()}, nil)
	require.NoError(t, err)
	assert.True(t, sess.DurationHours().Equal(decimal.RequireFromString("1.5")))
}

func TestSessionClone(t *testing.T) {
	student := uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sess, err := NewSession(uuid.New(), start, start.Add(time.Hour),
		[]uuid.UUID{uuid.New()}, []uuid.UUID{student})
	require.NoError(t, err)

	cp := sess.Clone()
	cp.Attendance[student] = AttendancePresent
	cp.Status = SessionRunning

	assert.Equal(t, AttendanceScheduled, sess.Attendance[student])
	assert.Equal(t, SessionScheduled, sess.Status)
}

func TestSessionStatusIsTerminal(t *testing.T) {
	terminal := map[SessionStatus]bool{
		SessionScheduled:   false,
		SessionPending:     false,
		SessionRunning:     false,
		SessionComplete:    true,
		SessionCancelled:   true,
		SessionAbsence:     true,
		SessionRescheduled: false,
	}
	for status, want := range terminal {
		assert.Equal(t, want, status.IsTerminal(), "status %s", status)
	}
}

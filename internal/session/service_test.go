package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/notify"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store/memory"
)

type fixture struct {
	svc      *Service
	sessions *memory.SessionStore
	requests *memory.RescheduleStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := memory.NewSessionStore()
	requests := memory.NewRescheduleStore()
	detector := schedule.NewDetector(sessions, memory.NewUnavailabilityStore())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:      NewService(sessions, requests, detector, notify.NopSink{}, log),
		sessions: sessions,
		requests: requests,
	}
}

func (f *fixture) createSession(t *testing.T, students int) *models.Session {
	t.Helper()
	studentIDs := make([]uuid.UUID, students)
	for i := range studentIDs {
		studentIDs[i] = uuid.New()
	}
	sess, err := f.svc.Create(context.Background(), uuid.New(),
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		[]uuid.UUID{uuid.New()}, studentIDs, "UTC", false)
	require.NoError(t, err)
	return sess
}

func (f *fixture) advance(t *testing.T, id uuid.UUID, actions ...models.Action) *models.Session {
	t.Helper()
	var sess *models.Session
	var err error
	for _, action := range actions {
		sess, err = f.svc.Transition(context.Background(), id, action)
		require.NoError(t, err)
	}
	return sess
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 2)
	assert.Equal(t, models.SessionScheduled, sess.Status)

	sess = f.advance(t, sess.ID, models.ActionInitiate)
	assert.Equal(t, models.SessionPending, sess.Status)

	sess = f.advance(t, sess.ID, models.ActionStart)
	assert.Equal(t, models.SessionRunning, sess.Status)

	sess = f.advance(t, sess.ID, models.ActionEnd)
	assert.Equal(t, models.SessionComplete, sess.Status)
	assert.True(t, sess.Status.IsTerminal())
}

func TestTransitionRejectsIllegalActions(t *testing.T) {
	tests := []struct {
		name    string
		prepare []models.Action
		action  models.Action
	}{
		{"start before initiate", nil, models.ActionStart},
		{"end before start", []models.Action{models.ActionInitiate}, models.ActionEnd},
		{"leave after initiate", []models.Action{models.ActionInitiate}, models.ActionLeave},
		{"absence while scheduled", nil, models.ActionMarkAbsence},
		{"initiate replay", []models.Action{models.ActionInitiate}, models.ActionInitiate},
		{"end replay", []models.Action{models.ActionInitiate, models.ActionStart, models.ActionEnd}, models.ActionEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sess := f.createSession(t, 1)
			if len(tt.prepare) > 0 {
				sess = f.advance(t, sess.ID, tt.prepare...)
			}
			before := sess.Status

			_, err := f.svc.Transition(context.Background(), sess.ID, tt.action)
			require.Error(t, err)
			var invalid *models.InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, before, invalid.From)
			assert.Equal(t, tt.action, invalid.Action)

			// Nothing moved.
			got, err := f.svc.Get(context.Background(), sess.ID)
			require.NoError(t, err)
			assert.Equal(t, before, got.Status)
		})
	}
}

func TestTransitionFromTerminalStates(t *testing.T) {
	f := newFixture(t)

	cancelled := f.createSession(t, 1)
	f.advance(t, cancelled.ID, models.ActionLeave)

	for _, action := range []models.Action{models.ActionInitiate, models.ActionStart, models.ActionEnd, models.ActionLeave} {
		_, err := f.svc.Transition(context.Background(), cancelled.ID, action)
		var invalid *models.InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "action %s", action)
	}
}

func TestMarkAbsenceFlipsAllStudentsAtomically(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 5)
	f.advance(t, sess.ID, models.ActionInitiate, models.ActionStart)

	got, err := f.svc.Transition(context.Background(), sess.ID, models.ActionMarkAbsence)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAbsence, got.Status)
	for _, studentID := range got.StudentIDs {
		assert.Equal(t, models.AttendanceAbsent, got.Attendance[studentID])
	}

	// The stored copy agrees; the flip and the status landed in one write.
	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAbsence, stored.Status)
	for _, studentID := range stored.StudentIDs {
		assert.Equal(t, models.AttendanceAbsent, stored.Attendance[studentID])
	}
}

func TestMarkAttendance(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 2)
	studentID := sess.StudentIDs[0]

	// Not running yet.
	_, err := f.svc.MarkAttendance(context.Background(), sess.ID, studentID, models.AttendancePresent)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	f.advance(t, sess.ID, models.ActionInitiate, models.ActionStart)

	got, err := f.svc.MarkAttendance(context.Background(), sess.ID, studentID, models.AttendancePresent)
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, got.Attendance[studentID])

	// Unknown participant.
	_, err = f.svc.MarkAttendance(context.Background(), sess.ID, uuid.New(), models.AttendancePresent)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Terminal sessions are immutable.
	f.advance(t, sess.ID, models.ActionEnd)
	_, err = f.svc.MarkAttendance(context.Background(), sess.ID, studentID, models.AttendanceAbsent)
	var terminal *models.SessionTerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, models.SessionComplete, terminal.Status)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 1)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Transition(context.Background(), sess.ID, models.ActionInitiate)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var invalid *models.InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	}
	assert.Equal(t, 1, wins)

	got, err := f.svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, got.Status)
}

func TestCreateBlocksOnScheduleConflict(t *testing.T) {
	f := newFixture(t)
	teacherID := uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := f.svc.Create(context.Background(), uuid.New(), start, end,
		[]uuid.UUID{teacherID}, []uuid.UUID{uuid.New()}, "UTC", false)
	require.NoError(t, err)

	// Same teacher, same weekly slot next week.
	_, err = f.svc.Create(context.Background(), uuid.New(), start.AddDate(0, 0, 7), end.AddDate(0, 0, 7),
		[]uuid.UUID{teacherID}, []uuid.UUID{uuid.New()}, "UTC", false)
	var conflict *schedule.ScheduleConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, teacherID, conflict.TeacherID)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, schedule.KindSchedule, conflict.Conflicts[0].Kind)

	// Back-to-back slot is fine.
	_, err = f.svc.Create(context.Background(), uuid.New(), end, end.Add(time.Hour),
		[]uuid.UUID{teacherID}, []uuid.UUID{uuid.New()}, "UTC", false)
	assert.NoError(t, err)
}

func TestRescheduleCreatesSuccessorAndReleasesSlot(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 2)
	newStart := sess.StartTime.Add(24 * time.Hour)
	newEnd := sess.EndTime.Add(24 * time.Hour)

	successor, err := f.svc.Reschedule(context.Background(), sess.ID, newStart, newEnd, "UTC", false)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, successor.ID)
	assert.Equal(t, newStart, successor.StartTime)
	assert.Equal(t, models.SessionScheduled, successor.Status)
	assert.ElementsMatch(t, sess.StudentIDs, successor.StudentIDs)
	for _, studentID := range successor.StudentIDs {
		assert.Equal(t, models.AttendanceScheduled, successor.Attendance[studentID])
	}

	original, err := f.svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRescheduled, original.Status)

	// The released slot can be reused by the same teacher.
	_, err = f.svc.Create(context.Background(), uuid.New(), sess.StartTime, sess.EndTime,
		sess.TeacherIDs, []uuid.UUID{uuid.New()}, "UTC", false)
	assert.NoError(t, err)
}

func TestRescheduleConflictLeavesOriginalIntact(t *testing.T) {
	f := newFixture(t)
	teacherID := uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	blocker, err := f.svc.Create(context.Background(), uuid.New(), start.Add(3*time.Hour), start.Add(4*time.Hour),
		[]uuid.UUID{teacherID}, []uuid.UUID{uuid.New()}, "UTC", false)
	require.NoError(t, err)
	_ = blocker

	sess, err := f.svc.Create(context.Background(), uuid.New(), start, start.Add(time.Hour),
		[]uuid.UUID{teacherID}, []uuid.UUID{uuid.New()}, "UTC", false)
	require.NoError(t, err)

	// Moving onto the blocker's slot fails and changes nothing.
	_, err = f.svc.Reschedule(context.Background(), sess.ID, start.Add(3*time.Hour), start.Add(4*time.Hour), "UTC", false)
	var conflict *schedule.ScheduleConflictError
	require.ErrorAs(t, err, &conflict)

	got, err := f.svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionScheduled, got.Status)
	assert.Equal(t, start, got.StartTime)
}

func TestRescheduleRequiresScheduledStatus(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 1)
	f.advance(t, sess.ID, models.ActionInitiate)

	_, err := f.svc.Reschedule(context.Background(), sess.ID,
		sess.StartTime.Add(24*time.Hour), sess.EndTime.Add(24*time.Hour), "UTC", false)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.SessionPending, invalid.From)
}

func TestRescheduleWorkflow(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 1)
	requester := uuid.New()
	admin := uuid.New()
	proposedStart := sess.StartTime.Add(48 * time.Hour)
	proposedEnd := sess.EndTime.Add(48 * time.Hour)

	req, err := f.svc.RequestReschedule(context.Background(), sess.ID, requester, "clinic visit", proposedStart, proposedEnd)
	require.NoError(t, err)
	assert.Equal(t, models.ReschedulePending, req.Status)

	successor, err := f.svc.ApproveReschedule(context.Background(), req.ID, admin, "UTC", false)
	require.NoError(t, err)
	assert.Equal(t, proposedStart, successor.StartTime)

	resolved, err := f.requests.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, admin, *resolved.ResolvedBy)

	// Resolving twice is rejected.
	_, err = f.svc.ApproveReschedule(context.Background(), req.ID, admin, "UTC", false)
	assert.ErrorIs(t, err, models.ErrDuplicateResolution)
	_, err = f.svc.RejectReschedule(context.Background(), req.ID, admin)
	assert.ErrorIs(t, err, models.ErrDuplicateResolution)
}

func TestRejectRescheduleLeavesSessionAlone(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 1)

	req, err := f.svc.RequestReschedule(context.Background(), sess.ID, uuid.New(), "",
		sess.StartTime.Add(24*time.Hour), sess.EndTime.Add(24*time.Hour))
	require.NoError(t, err)

	resolved, err := f.svc.RejectReschedule(context.Background(), req.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleRejected, resolved.Status)

	got, err := f.svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionScheduled, got.Status)
	assert.Equal(t, sess.StartTime, got.StartTime)
}

func TestRequestRescheduleValidation(t *testing.T) {
	f := newFixture(t)
	sess := f.createSession(t, 1)

	// Proposed range must be ordered.
	_, err := f.svc.RequestReschedule(context.Background(), sess.ID, uuid.New(), "",
		sess.EndTime, sess.StartTime)
	assert.True(t, models.IsInvalidRange(err))

	// Only scheduled sessions can be moved.
	f.advance(t, sess.ID, models.ActionLeave)
	_, err = f.svc.RequestReschedule(context.Background(), sess.ID, uuid.New(), "",
		sess.StartTime.Add(24*time.Hour), sess.EndTime.Add(24*time.Hour))
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// Unknown session.
	_, err = f.svc.RequestReschedule(context.Background(), uuid.New(), uuid.New(), "",
		sess.StartTime, sess.EndTime)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

// Package session implements the class-session lifecycle: a finite state
// machine per scheduled occurrence, with attendance records per participant
// and a reschedule workflow gated by conflict detection.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/notify"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
)

type Service struct {
	sessions    store.SessionStore
	reschedules store.RescheduleStore
	detector    *schedule.Detector
	sink        notify.Sink
	log         *slog.Logger

	// locks serializes read-check-write per session id so that concurrent
	// transition attempts have exactly one winner.
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewService(sessions store.SessionStore, reschedules store.RescheduleStore, detector *schedule.Detector, sink notify.Sink, log *slog.Logger) *Service {
	return &Service{
		sessions:    sessions,
		reschedules: reschedules,
		detector:    detector,
		sink:        sink,
		log:         log,
	}
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create schedules a new occurrence after checking every assigned teacher for
// conflicts at the proposed time. Schedule-kind conflicts block; availability
// conflicts block unless overrideAvailability is set.
func (s *Service) Create(ctx context.Context, classID uuid.UUID, start, end time.Time, teacherIDs, studentIDs []uuid.UUID, tz string, overrideAvailability bool) (*models.Session, error) {
	sess, err := models.NewSession(classID, start, end, teacherIDs, studentIDs)
	if err != nil {
		return nil, err
	}

	for _, teacherID := range sess.TeacherIDs {
		if err := s.checkTeacher(ctx, teacherID, start, end, tz, uuid.Nil, overrideAvailability); err != nil {
			return nil, err
		}
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.log.InfoContext(ctx, "session created",
		slog.String("session_id", sess.ID.String()),
		slog.String("class_id", classID.String()),
		slog.Time("start", sess.StartTime))
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Transition applies one of initiate, start, end, mark_absence, or leave.
// The state change and its side effect are written in a single store update,
// so they land together or not at all. Replaying an already-applied action
// returns InvalidTransitionError and leaves everything untouched.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action models.Action) (*models.Session, error) {
	if action == models.ActionReschedule {
		return nil, fmt.Errorf("reschedule requires a proposed time; use Reschedule")
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := nextState(sess, action)
	if err != nil {
		return nil, err
	}

	sess.Status = to
	sess.UpdatedAt = time.Now().UTC()

	// Side effect of the absence branch: every enrolled student's attendance
	// flips to absent in the same write as the status change.
	if action == models.ActionMarkAbsence {
		for _, studentID := range sess.StudentIDs {
			sess.Attendance[studentID] = models.AttendanceAbsent
		}
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", action, err)
	}

	switch action {
	case models.ActionLeave:
		s.sink.Notify(ctx, notify.Event{Kind: notify.EventClassCancelled, SessionID: sess.ID})
	case models.ActionMarkAbsence:
		s.sink.Notify(ctx, notify.Event{Kind: notify.EventAbsenceMarked, SessionID: sess.ID,
			Detail: fmt.Sprintf("%d students marked absent", len(sess.StudentIDs))})
	}

	s.log.InfoContext(ctx, "session transition",
		slog.String("session_id", sess.ID.String()),
		slog.String("action", string(action)),
		slog.String("status", string(sess.Status)))
	return sess, nil
}

// MarkAttendance sets one participant's attendance. Only legal while the
// session is running; terminal sessions reject with SessionTerminalError.
func (s *Service) MarkAttendance(ctx context.Context, id, participantID uuid.UUID, status models.AttendanceStatus) (*models.Session, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, &models.SessionTerminalError{SessionID: sess.ID, Status: sess.Status}
	}
	if sess.Status != models.SessionRunning {
		return nil, &models.InvalidTransitionError{SessionID: sess.ID, From: sess.Status, Action: models.ActionMarkAttendance}
	}
	if _, ok := sess.Attendance[participantID]; !ok {
		return nil, models.ErrNotFound
	}

	sess.Attendance[participantID] = status
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}
	return sess, nil
}

// Reschedule moves a scheduled session to a new time. The original session is
// marked rescheduled (its slot released) and a successor session is created at
// the new time with fresh attendance. Any conflict or validation failure
// leaves the original time intact.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time, tz string, overrideAvailability bool) (*models.Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	return s.rescheduleLocked(ctx, id, newStart, newEnd, tz, overrideAvailability)
}

func (s *Service) rescheduleLocked(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time, tz string, overrideAvailability bool) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Legality check against the transition table before touching anything.
	if _, err := nextState(sess, models.ActionReschedule); err != nil {
		return nil, err
	}
	if !newEnd.After(newStart) {
		return nil, &models.InvalidRangeError{Start: newStart, End: newEnd, Reason: "session end must be after start"}
	}

	for _, teacherID := range sess.TeacherIDs {
		if err := s.checkTeacher(ctx, teacherID, newStart, newEnd, tz, sess.ID, overrideAvailability); err != nil {
			return nil, err
		}
	}

	successor, err := models.NewSession(sess.ClassID, newStart, newEnd, sess.TeacherIDs, sess.StudentIDs)
	if err != nil {
		return nil, err
	}

	sess.Status = models.SessionRescheduled
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to release old slot: %w", err)
	}
	if err := s.sessions.Create(ctx, successor); err != nil {
		// Restore the original slot so the failure is not observable.
		sess.Status = models.SessionScheduled
		if rbErr := s.sessions.Update(ctx, sess); rbErr != nil {
			s.log.ErrorContext(ctx, "failed to restore session after reschedule failure",
				slog.String("session_id", sess.ID.String()),
				slog.String("error", rbErr.Error()))
		}
		return nil, fmt.Errorf("failed to bind new slot: %w", err)
	}

	s.log.InfoContext(ctx, "session rescheduled",
		slog.String("session_id", sess.ID.String()),
		slog.String("successor_id", successor.ID.String()),
		slog.Time("new_start", successor.StartTime))
	return successor, nil
}

// checkTeacher runs conflict detection for one teacher and applies the
// enforcement policy: schedule conflicts always block, availability conflicts
// block unless the caller overrides.
func (s *Service) checkTeacher(ctx context.Context, teacherID uuid.UUID, start, end time.Time, tz string, ignoreSession uuid.UUID, overrideAvailability bool) error {
	conflicts, err := s.detector.Detect(ctx, teacherID, start, end, tz, ignoreSession)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	if schedule.HasHardConflict(conflicts) || !overrideAvailability {
		return &schedule.ScheduleConflictError{TeacherID: teacherID, Conflicts: conflicts}
	}
	return nil
}

// Package schedule detects overlaps between a proposed class occurrence and a
// teacher's recurring weekly commitments. The detector only classifies
// conflicts; whether a conflict blocks the proposal is the caller's policy.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/timeutil"
)

// Kind classifies a conflict: against another class the teacher teaches, or
// against a declared unavailable window.
type Kind string

const (
	KindSchedule     Kind = "schedule"
	KindAvailability Kind = "availability"
)

// Commitment is one recurring weekly slot a teacher is bound to, expressed as
// half-open [StartMinute, EndMinute) minutes since midnight in the teacher's
// timezone.
type Commitment struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Kind        Kind
	Label       string
	SessionID   uuid.UUID // set for schedule-kind commitments
}

// Conflict is one overlap between a proposal and an existing commitment.
type Conflict struct {
	Kind        Kind         `json:"type"`
	Weekday     time.Weekday `json:"weekday"`
	StartMinute int          `json:"start_minute"`
	EndMinute   int          `json:"end_minute"`
	Message     string       `json:"message"`
	Label       string       `json:"label,omitempty"`
}

// ScheduleConflictError is returned when a hard conflict blocks a commit.
type ScheduleConflictError struct {
	TeacherID uuid.UUID
	Conflicts []Conflict
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("teacher %s has %d scheduling conflict(s)", e.TeacherID, len(e.Conflicts))
}

func IsScheduleConflict(err error) bool {
	var e *ScheduleConflictError
	return errors.As(err, &e)
}

// Overlaps reports whether two half-open minute intervals intersect.
// Touching boundaries do not conflict, so back-to-back classes are allowed.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Detector builds a teacher's weekly commitments from non-terminal sessions
// and declared unavailability, and checks proposals against them.
type Detector struct {
	sessions       store.SessionStore
	unavailability store.UnavailabilityStore
}

func NewDetector(sessions store.SessionStore, unavailability store.UnavailabilityStore) *Detector {
	return &Detector{sessions: sessions, unavailability: unavailability}
}

// CommitmentsFor derives the teacher's recurring weekly commitments in the
// given timezone. Terminal sessions no longer occupy their slot.
func (d *Detector) CommitmentsFor(ctx context.Context, teacherID uuid.UUID, tz string) ([]Commitment, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	sessions, err := d.sessions.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher sessions: %w", err)
	}

	var commitments []Commitment
	for _, s := range sessions {
		// Terminal sessions and rescheduled ones (superseded by a new
		// occurrence) no longer hold their slot.
		if s.Status.IsTerminal() || s.Status == models.SessionRescheduled {
			continue
		}
		local := s.StartTime.In(loc)
		commitments = append(commitments, Commitment{
			Weekday:     local.Weekday(),
			StartMinute: timeutil.MinuteOfDay(s.StartTime, loc),
			EndMinute:   timeutil.MinuteOfDay(s.StartTime, loc) + int(s.EndTime.Sub(s.StartTime).Minutes()),
			Kind:        KindSchedule,
			Label:       fmt.Sprintf("class %s", s.ClassID),
			SessionID:   s.ID,
		})
	}

	windows, err := d.unavailability.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unavailability: %w", err)
	}
	for _, w := range windows {
		commitments = append(commitments, Commitment{
			Weekday:     w.Weekday,
			StartMinute: w.StartMinute,
			EndMinute:   w.EndMinute,
			Kind:        KindAvailability,
			Label:       w.Label,
		})
	}

	return commitments, nil
}

// Detect maps the proposed occurrence to the teacher's local weekday and
// wall-clock minutes, then returns every overlapping commitment. It never
// short-circuits: the caller needs the full list to present to a human.
//
// ignoreSession excludes one session's own slot, so that rescheduling a
// session is not blocked by the slot it is vacating.
func (d *Detector) Detect(ctx context.Context, teacherID uuid.UUID, proposedStart, proposedEnd time.Time, tz string, ignoreSession uuid.UUID) ([]Conflict, error) {
	if !proposedEnd.After(proposedStart) {
		return nil, &models.InvalidRangeError{Start: proposedStart, End: proposedEnd, Reason: "proposed end must be after start"}
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	commitments, err := d.CommitmentsFor(ctx, teacherID, tz)
	if err != nil {
		return nil, err
	}

	weekday := proposedStart.In(loc).Weekday()
	newStart := timeutil.MinuteOfDay(proposedStart, loc)
	newEnd := newStart + int(proposedEnd.Sub(proposedStart).Minutes())

	var conflicts []Conflict
	for _, c := range commitments {
		if c.Weekday != weekday {
			continue
		}
		if c.Kind == KindSchedule && c.SessionID == ignoreSession {
			continue
		}
		if !Overlaps(c.StartMinute, c.EndMinute, newStart, newEnd) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:        c.Kind,
			Weekday:     c.Weekday,
			StartMinute: c.StartMinute,
			EndMinute:   c.EndMinute,
			Message:     conflictMessage(c),
			Label:       c.Label,
		})
	}

	return conflicts, nil
}

// HasHardConflict reports whether any conflict in the list is schedule-kind.
// Availability conflicts are soft: callers may override them by policy.
func HasHardConflict(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Kind == KindSchedule {
			return true
		}
	}
	return false
}

func conflictMessage(c Commitment) string {
	what := "an unavailable window"
	if c.Kind == KindSchedule {
		what = "another class"
	}
	return fmt.Sprintf("overlaps %s on %s %s-%s", what, c.Weekday, formatMinute(c.StartMinute), formatMinute(c.EndMinute))
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is one concrete occurrence of a class. Times are stored in UTC;
// timezone matters only at the formatting boundary.
type Session struct {
	ID         uuid.UUID
	ClassID    uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Status     SessionStatus
	TeacherIDs []uuid.UUID
	StudentIDs []uuid.UUID
	// Attendance holds exactly one entry per enrolled participant
	// (teachers and students). Built at construction, never sparse.
	Attendance map[uuid.UUID]AttendanceStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession builds a session in the scheduled state with a complete
// attendance map. End must be strictly after start.
func NewSession(classID uuid.UUID, start, end time.Time, teacherIDs, studentIDs []uuid.UUID) (*Session, error) {
	if !end.After(start) {
		return nil, &InvalidRangeError{Start: start, End: end, Reason: "session end must be after start"}
	}

	now := time.Now().UTC()
	s := &Session{
		ID:         uuid.New(),
		ClassID:    classID,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		Status:     SessionScheduled,
		TeacherIDs: dedupe(teacherIDs),
		StudentIDs: dedupe(studentIDs),
		Attendance: make(map[uuid.UUID]AttendanceStatus),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, id := range s.TeacherIDs {
		s.Attendance[id] = AttendanceScheduled
	}
	for _, id := range s.StudentIDs {
		s.Attendance[id] = AttendanceScheduled
	}
	return s, nil
}

// DurationHours returns the scheduled length in hours (minutes / 60).
func (s *Session) DurationHours() decimal.Decimal {
	minutes := s.EndTime.Sub(s.StartTime).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
}

// HasStudent reports whether the student is enrolled in this session.
func (s *Session) HasStudent(studentID uuid.UUID) bool {
	for _, id := range s.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share the attendance map with
// the stored session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.TeacherIDs = append([]uuid.UUID(nil), s.TeacherIDs...)
	cp.StudentIDs = append([]uuid.UUID(nil), s.StudentIDs...)
	cp.Attendance = make(map[uuid.UUID]AttendanceStatus, len(s.Attendance))
	for k, v := range s.Attendance {
		cp.Attendance[k] = v
	}
	return &cp
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SubscriptionPlan is a billing template students enroll under.
type SubscriptionPlan struct {
	ID                uuid.UUID
	Name              string
	HourlyRate        decimal.Decimal
	HoursPerMonth     int
	MaxFreeAbsences   int
	Currency          string
	Cadence           Cadence
	CadenceMultiplier int
}

// StudentSubscription binds a student to a plan. At most one active
// subscription per student at a time (enforced by the store).
type StudentSubscription struct {
	ID              uuid.UUID
	StudentID       uuid.UUID
	PlanID          uuid.UUID
	StartDate       time.Time
	NextPaymentDate time.Time
	Status          SubscriptionStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *StudentSubscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// BillingCalculation is the derived invoice-ready figure for one student and
// period. It is not persisted until turned into an invoice.
type BillingCalculation struct {
	StudentID            uuid.UUID
	SubscriptionID       uuid.UUID
	PeriodStart          time.Time
	PeriodEnd            time.Time
	SessionsScheduled    int
	SessionsAttended     int
	TotalHoursScheduled  decimal.Decimal
	TotalHoursAttended   decimal.Decimal
	FreeAbsencesUsed     int
	BillableHours        decimal.Decimal
	HourlyRate           decimal.Decimal
	TotalAmount          decimal.Decimal
	Currency             string
	SubscriptionInactive bool
}

// Invoice snapshots a billing calculation. Immutable once created; corrections
// happen via a new invoice or a status change, never by editing amounts.
type Invoice struct {
	ID                  uuid.UUID
	Number              string // INV-### sequential, gapless per store
	StudentID           uuid.UUID
	SubscriptionID      uuid.UUID
	PeriodStart         time.Time
	PeriodEnd           time.Time
	SessionsScheduled   int
	SessionsAttended    int
	TotalHoursScheduled decimal.Decimal
	TotalHoursAttended  decimal.Decimal
	FreeAbsencesUsed    int
	BillableHours       decimal.Decimal
	HourlyRate          decimal.Decimal
	TotalAmount         decimal.Decimal
	Currency            string
	Status              InvoiceStatus
	IssuedAt            time.Time
	DueDate             time.Time
}

// RescheduleRequest proposes moving a scheduled session to a new time.
type RescheduleRequest struct {
	ID            uuid.UUID
	SessionID     uuid.UUID
	RequestedBy   uuid.UUID
	Reason        string
	ProposedStart time.Time
	ProposedEnd   time.Time
	Status        RescheduleStatus
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// UnavailabilityWindow is a teacher's declared weekly unavailable slot,
// expressed in minutes since midnight in the teacher's timezone.
type UnavailabilityWindow struct {
	ID          uuid.UUID
	TeacherID   uuid.UUID
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Label       string
}

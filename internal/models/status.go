package models

// SessionStatus is the closed set of states a class session can be in.
// All transitions go through session.Service; nothing else derives state.
type SessionStatus string

const (
	SessionScheduled   SessionStatus = "scheduled"
	SessionPending     SessionStatus = "pending"
	SessionRunning     SessionStatus = "running"
	SessionComplete    SessionStatus = "complete"
	SessionCancelled   SessionStatus = "cancelled"
	SessionAbsence     SessionStatus = "absence"
	SessionRescheduled SessionStatus = "rescheduled"
)

// IsTerminal reports whether the session can no longer be mutated.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCancelled, SessionComplete, SessionAbsence:
		return true
	}
	return false
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionPending, SessionRunning, SessionComplete,
		SessionCancelled, SessionAbsence, SessionRescheduled:
		return true
	}
	return false
}

// AttendanceStatus marks one participant's attendance for one session.
type AttendanceStatus string

const (
	AttendanceScheduled AttendanceStatus = "scheduled"
	AttendanceExpected  AttendanceStatus = "expected"
	AttendancePresent   AttendanceStatus = "present"
	AttendanceAbsent    AttendanceStatus = "absent"
)

func (a AttendanceStatus) Valid() bool {
	switch a {
	case AttendanceScheduled, AttendanceExpected, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}

// Action is a requested session transition.
type Action string

const (
	ActionInitiate    Action = "initiate"
	ActionStart       Action = "start"
	ActionEnd         Action = "end"
	ActionMarkAbsence Action = "mark_absence"
	ActionLeave       Action = "leave"
	ActionReschedule  Action = "reschedule"

	// ActionMarkAttendance is not a state transition; it names the per-student
	// attendance mutation for error reporting.
	ActionMarkAttendance Action = "mark_attendance"
)

// Cadence is a subscription billing cycle.
type Cadence string

const (
	CadenceMonth     Cadence = "month"
	CadenceFourWeeks Cadence = "4-weeks"
)

func (c Cadence) Valid() bool {
	return c == CadenceMonth || c == CadenceFourWeeks
}

// SubscriptionStatus is active or inactive. Deactivation keeps history.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// InvoiceStatus tracks an issued invoice. Amounts never change; only status does.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// RescheduleStatus is the resolution state of a reschedule request.
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleRejected RescheduleStatus = "rejected"
)

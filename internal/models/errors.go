package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown entity ids.
	ErrNotFound = errors.New("not found")

	// ErrNoBillingData distinguishes "nothing happened this period" from a
	// zero-amount calculation. Callers must not invoice on it.
	ErrNoBillingData = errors.New("no billing data for period")

	// ErrDuplicateResolution is returned when resolving a reschedule request
	// that is no longer pending.
	ErrDuplicateResolution = errors.New("reschedule request already resolved")

	// ErrActiveSubscriptionExists guards the one-active-subscription-per-student
	// invariant.
	ErrActiveSubscriptionExists = errors.New("student already has an active subscription")

	// ErrInvoiceImmutable is returned on any attempt to change a non-draft
	// invoice's status the wrong way.
	ErrInvoiceImmutable = errors.New("invoice is immutable")
)

// InvalidTransitionError reports an illegal state-machine move. It carries the
// current state and the requested action so the caller can render a specific
// message.
type InvalidTransitionError struct {
	SessionID uuid.UUID
	From      SessionStatus
	Action    Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s session %s in state %s", e.Action, e.SessionID, e.From)
}

// SessionTerminalError reports a mutation attempted on a finished session.
type SessionTerminalError struct {
	SessionID uuid.UUID
	Status    SessionStatus
}

func (e *SessionTerminalError) Error() string {
	return fmt.Sprintf("session %s is terminal (%s) and cannot be modified", e.SessionID, e.Status)
}

// InvalidRangeError reports a malformed date or time range.
type InvalidRangeError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *InvalidRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid range: %s (%s .. %s)", e.Reason, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return fmt.Sprintf("invalid range: %s .. %s", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsSessionTerminal(err error) bool {
	var e *SessionTerminalError
	return errors.As(err, &e)
}

func IsInvalidRange(err error) bool {
	var e *InvalidRangeError
	return errors.As(err, &e)
}

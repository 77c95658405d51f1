// Package notify defines the fire-and-forget notification sink the core
// triggers on lifecycle events. Delivery is somebody else's problem.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventRescheduleRequested EventKind = "reschedule_requested"
	EventRescheduleApproved  EventKind = "reschedule_approved"
	EventRescheduleRejected  EventKind = "reschedule_rejected"
	EventClassCancelled      EventKind = "class_cancelled"
	EventAbsenceMarked       EventKind = "absence_marked"
)

type Event struct {
	Kind      EventKind
	SessionID uuid.UUID
	Detail    string
}

// Sink receives events. Implementations must not block the caller on delivery
// and must never fail a business operation.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// LogSink writes events to the structured log.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(ctx context.Context, e Event) {
	s.log.InfoContext(ctx, "notification",
		slog.String("event", string(e.Kind)),
		slog.String("session_id", e.SessionID.String()),
		slog.String("detail", e.Detail),
	)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Notify(ctx context.Context, e Event) {}

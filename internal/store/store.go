// Package store defines the persistence interfaces the core services consume.
// Implementations live in the memory and postgres subpackages.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

// SessionStore reads and writes sessions with their attendance records.
// Update replaces status, attendance, and times in one atomic write; callers
// serialize per-session access above this layer.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Create(ctx context.Context, s *models.Session) error
	Update(ctx context.Context, s *models.Session) error
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Session, error)
	ListByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*models.Session, error)
}

// SubscriptionStore reads and writes plans and student subscriptions.
type SubscriptionStore interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, p *models.SubscriptionPlan) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.StudentSubscription, error)
	CreateSubscription(ctx context.Context, s *models.StudentSubscription) error
	UpdateSubscription(ctx context.Context, s *models.StudentSubscription) error
	// ActiveByStudent returns models.ErrNotFound when the student has no
	// active subscription.
	ActiveByStudent(ctx context.Context, studentID uuid.UUID) (*models.StudentSubscription, error)
}

// InvoiceStore owns the invoice sequence. NextNumber must be race-free across
// concurrent callers (and across instances for the Postgres implementation).
type InvoiceStore interface {
	NextNumber(ctx context.Context) (int, error)
	Insert(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
}

// RescheduleStore reads and writes reschedule requests.
type RescheduleStore interface {
	Create(ctx context.Context, r *models.RescheduleRequest) error
	Get(ctx context.Context, id uuid.UUID) (*models.RescheduleRequest, error)
	Update(ctx context.Context, r *models.RescheduleRequest) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.RescheduleRequest, error)
}

// UnavailabilityStore reads and writes teachers' declared unavailable windows.
type UnavailabilityStore interface {
	Create(ctx context.Context, w *models.UnavailabilityWindow) error
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.UnavailabilityWindow, error)
}

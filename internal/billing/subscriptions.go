package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/timeutil"
)

// Subscriptions manages student-plan bindings and their payment cycle.
type Subscriptions struct {
	store store.SubscriptionStore
}

func NewSubscriptions(s store.SubscriptionStore) *Subscriptions {
	return &Subscriptions{store: s}
}

// Subscribe binds a student to a plan starting at start. The next payment
// date follows the plan's cadence. A student can hold only one active
// subscription; the store enforces it.
func (s *Subscriptions) Subscribe(ctx context.Context, studentID, planID uuid.UUID, start time.Time) (*models.StudentSubscription, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.StudentSubscription{
		ID:              uuid.New(),
		StudentID:       studentID,
		PlanID:          plan.ID,
		StartDate:       start.UTC(),
		NextPaymentDate: timeutil.NextPaymentDate(start.UTC(), plan.Cadence, plan.CadenceMultiplier),
		Status:          models.SubscriptionActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Deactivate stops future billing-period generation. History stays.
func (s *Subscriptions) Deactivate(ctx context.Context, subscriptionID uuid.UUID) (*models.StudentSubscription, error) {
	sub, err := s.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionInactive {
		return sub, nil
	}
	sub.Status = models.SubscriptionInactive
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	return sub, nil
}

// ActiveForStudent returns the student's current active subscription.
func (s *Subscriptions) ActiveForStudent(ctx context.Context, studentID uuid.UUID) (*models.StudentSubscription, error) {
	return s.store.ActiveByStudent(ctx, studentID)
}

// CreatePlan registers a billing template.
func (s *Subscriptions) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if !plan.Cadence.Valid() {
		return nil, fmt.Errorf("invalid cadence %q", plan.Cadence)
	}
	if plan.CadenceMultiplier < 1 {
		plan.CadenceMultiplier = 1
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

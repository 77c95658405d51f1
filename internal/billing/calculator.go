// Package billing turns a student's attendance history and subscription plan
// into invoice-ready amounts.
package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
)

type Calculator struct {
	sessions      store.SessionStore
	subscriptions store.SubscriptionStore
	log           *slog.Logger
}

func NewCalculator(sessions store.SessionStore, subscriptions store.SubscriptionStore, log *slog.Logger) *Calculator {
	return &Calculator{sessions: sessions, subscriptions: subscriptions, log: log}
}

// Calculate aggregates the student's completed and absence sessions over
// [periodStart, periodEnd] against the subscription's plan.
//
// Only sessions in a terminal attendance-bearing state (complete or absence)
// count; anything still scheduled, pending, or running is excluded. Absences
// beyond the plan's free allowance are billed at the period's average
// scheduled session length. A period with no billable sessions returns
// models.ErrNoBillingData so callers can tell "nothing happened" from "zero
// owed".
func (c *Calculator) Calculate(ctx context.Context, studentID, subscriptionID uuid.UUID, periodStart, periodEnd time.Time) (*models.BillingCalculation, error) {
	if periodEnd.Before(periodStart) {
		return nil, &models.InvalidRangeError{Start: periodStart, End: periodEnd, Reason: "period end before period start"}
	}

	sub, err := c.subscriptions.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.StudentID != studentID {
		return nil, models.ErrNotFound
	}
	plan, err := c.subscriptions.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	sessions, err := c.sessions.ListByStudentInRange(ctx, studentID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	var (
		scheduled      int
		attended       int
		absences       int
		hoursScheduled = decimal.Zero
		hoursAttended  = decimal.Zero
	)
	for _, sess := range sessions {
		if sess.Status != models.SessionComplete && sess.Status != models.SessionAbsence {
			continue
		}
		hours := sess.DurationHours()
		scheduled++
		hoursScheduled = hoursScheduled.Add(hours)

		switch sess.Attendance[studentID] {
		case models.AttendancePresent:
			attended++
			hoursAttended = hoursAttended.Add(hours)
		case models.AttendanceAbsent:
			absences++
		}
	}

	if scheduled == 0 {
		return nil, models.ErrNoBillingData
	}

	freeUsed := absences
	if freeUsed > plan.MaxFreeAbsences {
		freeUsed = plan.MaxFreeAbsences
	}

	billableHours := hoursAttended
	if excess := absences - plan.MaxFreeAbsences; excess > 0 {
		avgHours := hoursScheduled.Div(decimal.NewFromInt(int64(scheduled)))
		billableHours = billableHours.Add(avgHours.Mul(decimal.NewFromInt(int64(excess))))
	}

	totalAmount := billableHours.Mul(plan.HourlyRate).Round(2)

	calc := &models.BillingCalculation{
		StudentID:            studentID,
		SubscriptionID:       subscriptionID,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
		SessionsScheduled:    scheduled,
		SessionsAttended:     attended,
		TotalHoursScheduled:  hoursScheduled,
		TotalHoursAttended:   hoursAttended,
		FreeAbsencesUsed:     freeUsed,
		BillableHours:        billableHours,
		HourlyRate:           plan.HourlyRate,
		TotalAmount:          totalAmount,
		Currency:             plan.Currency,
		SubscriptionInactive: !sub.IsActive(),
	}

	c.log.InfoContext(ctx, "billing calculated",
		slog.String("student_id", studentID.String()),
		slog.Int("sessions_scheduled", scheduled),
		slog.Int("sessions_attended", attended),
		slog.String("total_amount", totalAmount.String()))
	return calc, nil
}

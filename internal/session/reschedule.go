package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/notify"
)

// RequestReschedule files a proposal to move a scheduled session. Teachers and
// admins create these; admins resolve them.
func (s *Service) RequestReschedule(ctx context.Context, sessionID, requestedBy uuid.UUID, reason string, proposedStart, proposedEnd time.Time) (*models.RescheduleRequest, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionScheduled {
		return nil, &models.InvalidTransitionError{SessionID: sess.ID, From: sess.Status, Action: models.ActionReschedule}
	}
	if !proposedEnd.After(proposedStart) {
		return nil, &models.InvalidRangeError{Start: proposedStart, End: proposedEnd, Reason: "proposed end must be after start"}
	}

	req := &models.RescheduleRequest{
		ID:            uuid.New(),
		SessionID:     sessionID,
		RequestedBy:   requestedBy,
		Reason:        reason,
		ProposedStart: proposedStart.UTC(),
		ProposedEnd:   proposedEnd.UTC(),
		Status:        models.ReschedulePending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.reschedules.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create reschedule request: %w", err)
	}

	s.sink.Notify(ctx, notify.Event{Kind: notify.EventRescheduleRequested, SessionID: sessionID, Detail: reason})
	return req, nil
}

// ApproveReschedule resolves a pending request and fires the reschedule
// transition. Conflict detection runs against the proposed time for every
// assigned teacher; a failure leaves both the request and the session intact.
func (s *Service) ApproveReschedule(ctx context.Context, requestID, resolvedBy uuid.UUID, tz string, overrideAvailability bool) (*models.Session, error) {
	req, err := s.reschedules.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.ReschedulePending {
		return nil, models.ErrDuplicateResolution
	}

	mu := s.lockFor(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	successor, err := s.rescheduleLocked(ctx, req.SessionID, req.ProposedStart, req.ProposedEnd, tz, overrideAvailability)
	if err != nil {
		return nil, err
	}

	req.Status = models.RescheduleApproved
	req.ResolvedBy = lo.ToPtr(resolvedBy)
	req.ResolvedAt = lo.ToPtr(time.Now().UTC())
	if err := s.reschedules.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to resolve reschedule request: %w", err)
	}

	s.sink.Notify(ctx, notify.Event{Kind: notify.EventRescheduleApproved, SessionID: req.SessionID,
		Detail: fmt.Sprintf("moved to %s", successor.StartTime.Format(time.RFC3339))})
	s.log.InfoContext(ctx, "reschedule approved",
		slog.String("request_id", req.ID.String()),
		slog.String("session_id", req.SessionID.String()))
	return successor, nil
}

// RejectReschedule resolves a pending request without touching the session.
func (s *Service) RejectReschedule(ctx context.Context, requestID, resolvedBy uuid.UUID) (*models.RescheduleRequest, error) {
	req, err := s.reschedules.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.ReschedulePending {
		return nil, models.ErrDuplicateResolution
	}

	req.Status = models.RescheduleRejected
	req.ResolvedBy = lo.ToPtr(resolvedBy)
	req.ResolvedAt = lo.ToPtr(time.Now().UTC())
	if err := s.reschedules.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to resolve reschedule request: %w", err)
	}

	s.sink.Notify(ctx, notify.Event{Kind: notify.EventRescheduleRejected, SessionID: req.SessionID})
	return req, nil
}

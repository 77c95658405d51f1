package session

import (
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

// transitions is the single authoritative transition table. Every status
// change in the system goes through it; nothing else re-derives state.
//
// Reschedule is handled separately in Service.Reschedule because it carries a
// payload (the new time) and a conflict-detection gate, but its legality is
// still checked against this table.
var transitions = map[models.SessionStatus]map[models.Action]models.SessionStatus{
	models.SessionScheduled: {
		models.ActionInitiate:   models.SessionPending,
		models.ActionLeave:      models.SessionCancelled,
		models.ActionReschedule: models.SessionRescheduled,
	},
	models.SessionPending: {
		models.ActionStart: models.SessionRunning,
	},
	models.SessionRunning: {
		models.ActionEnd:         models.SessionComplete,
		models.ActionMarkAbsence: models.SessionAbsence,
	},
}

// nextState returns the target state for (from, action), or an
// InvalidTransitionError naming both when the move is not in the table.
func nextState(s *models.Session, action models.Action) (models.SessionStatus, error) {
	if byAction, ok := transitions[s.Status]; ok {
		if to, ok := byAction[action]; ok {
			return to, nil
		}
	}
	return "", &models.InvalidTransitionError{SessionID: s.ID, From: s.Status, Action: action}
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/session"
)

type SessionsHandler struct {
	svc       *session.Service
	detector  *schedule.Detector
	defaultTZ string
	log       *slog.Logger
}

func NewSessionsHandler(svc *session.Service, detector *schedule.Detector, defaultTZ string, log *slog.Logger) *SessionsHandler {
	return &SessionsHandler{svc: svc, detector: detector, defaultTZ: defaultTZ, log: log}
}

func (h *SessionsHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{id}", h.Get)
	r.Post("/sessions/{id}/transition", h.Transition)
	r.Post("/sessions/{id}/attendance", h.MarkAttendance)
	r.Post("/sessions/{id}/conflicts", h.CheckConflicts)
	r.Post("/sessions/{id}/reschedule-requests", h.RequestReschedule)
	r.Post("/reschedule-requests/{id}/approve", h.ApproveReschedule)
	r.Post("/reschedule-requests/{id}/reject", h.RejectReschedule)
}

type createSessionRequest struct {
	ClassID              uuid.UUID   `json:"class_id" validate:"required"`
	StartTime            time.Time   `json:"start_time" validate:"required"`
	EndTime              time.Time   `json:"end_time" validate:"required"`
	TeacherIDs           []uuid.UUID `json:"teacher_ids" validate:"required,min=1"`
	StudentIDs           []uuid.UUID `json:"student_ids"`
	Timezone             string      `json:"timezone"`
	OverrideAvailability bool        `json:"override_availability"`
}

func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = h.defaultTZ
	}

	sess, err := h.svc.Create(r.Context(), req.ClassID, req.StartTime, req.EndTime,
		req.TeacherIDs, req.StudentIDs, tz, req.OverrideAvailability)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

type transitionRequest struct {
	Action models.Action `json:"action" validate:"required,oneof=initiate start end mark_absence leave"`
}

func (h *SessionsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := h.svc.Transition(r.Context(), id, req.Action)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

type attendanceRequest struct {
	ParticipantID uuid.UUID               `json:"participant_id" validate:"required"`
	Status        models.AttendanceStatus `json:"status" validate:"required,oneof=scheduled expected present absent"`
}

func (h *SessionsHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req attendanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := h.svc.MarkAttendance(r.Context(), id, req.ParticipantID, req.Status)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

type conflictCheckRequest struct {
	ProposedStart time.Time `json:"proposed_start" validate:"required"`
	ProposedEnd   time.Time `json:"proposed_end" validate:"required"`
	Timezone      string    `json:"timezone"`
}

// CheckConflicts reports every overlap for every teacher on the session. It
// never blocks anything itself; callers decide what a conflict means.
func (h *SessionsHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req conflictCheckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = h.defaultTZ
	}

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	result := make(map[string][]schedule.Conflict, len(sess.TeacherIDs))
	for _, teacherID := range sess.TeacherIDs {
		conflicts, err := h.detector.Detect(r.Context(), teacherID, req.ProposedStart, req.ProposedEnd, tz, sess.ID)
		if err != nil {
			respondError(w, h.log, err)
			return
		}
		result[teacherID.String()] = conflicts
	}
	respondJSON(w, http.StatusOK, map[string]any{"conflicts_by_teacher": result})
}

type rescheduleRequestBody struct {
	RequestedBy   uuid.UUID `json:"requested_by" validate:"required"`
	Reason        string    `json:"reason"`
	ProposedStart time.Time `json:"proposed_start" validate:"required"`
	ProposedEnd   time.Time `json:"proposed_end" validate:"required"`
}

func (h *SessionsHandler) RequestReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequestBody
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.svc.RequestReschedule(r.Context(), id, req.RequestedBy, req.Reason, req.ProposedStart, req.ProposedEnd)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

type resolveRescheduleRequest struct {
	ResolvedBy           uuid.UUID `json:"resolved_by" validate:"required"`
	Timezone             string    `json:"timezone"`
	OverrideAvailability bool      `json:"override_availability"`
}

func (h *SessionsHandler) ApproveReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req resolveRescheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = h.defaultTZ
	}

	successor, err := h.svc.ApproveReschedule(r.Context(), id, req.ResolvedBy, tz, req.OverrideAvailability)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(successor))
}

func (h *SessionsHandler) RejectReschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req resolveRescheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.svc.RejectReschedule(r.Context(), id, req.ResolvedBy)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Code: "bad_request"})
		return uuid.Nil, false
	}
	return id, true
}

// sessionResponse flattens the session for JSON without exposing the internal
// attendance map keyed by uuid.
func sessionResponse(s *models.Session) map[string]any {
	attendance := make(map[string]models.AttendanceStatus, len(s.Attendance))
	for id, status := range s.Attendance {
		attendance[id.String()] = status
	}
	return map[string]any{
		"id":          s.ID,
		"class_id":    s.ClassID,
		"start_time":  s.StartTime,
		"end_time":    s.EndTime,
		"status":      s.Status,
		"teacher_ids": s.TeacherIDs,
		"student_ids": s.StudentIDs,
		"attendance":  attendance,
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/billing"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/notify"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/session"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sessions := memory.NewSessionStore()
	subscriptions := memory.NewSubscriptionStore()
	invoices := memory.NewInvoiceStore()
	reschedules := memory.NewRescheduleStore()
	unavailability := memory.NewUnavailabilityStore()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	detector := schedule.NewDetector(sessions, unavailability)
	svc := session.NewService(sessions, reschedules, detector, notify.NopSink{}, log)
	calculator := billing.NewCalculator(sessions, subscriptions, log)
	invoicer := billing.NewInvoicer(invoices, billing.DefaultDueDays, log)
	subs := billing.NewSubscriptions(subscriptions)

	r := chi.NewRouter()
	r.Group(NewSessionsHandler(svc, detector, "UTC", log).Routes)
	r.Group(NewBillingHandler(calculator, invoicer, log).Routes)
	r.Group(NewSubscriptionsHandler(subs, log).Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createSessionVia(t *testing.T, srv *httptest.Server, teacherID uuid.UUID, start time.Time) string {
	t.Helper()
	resp, body := postJSON(t, srv, "/sessions", map[string]any{
		"class_id":    uuid.New(),
		"start_time":  start,
		"end_time":    start.Add(time.Hour),
		"teacher_ids": []uuid.UUID{teacherID},
		"student_ids": []uuid.UUID{uuid.New()},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := createSessionVia(t, srv, uuid.New(), start)

	for _, step := range []struct {
		action string
		status string
	}{
		{"initiate", "pending"},
		{"start", "running"},
		{"end", "complete"},
	} {
		resp, body := postJSON(t, srv, "/sessions/"+id+"/transition", map[string]any{"action": step.action})
		require.Equal(t, http.StatusOK, resp.StatusCode, "action %s", step.action)
		assert.Equal(t, step.status, body["status"])
	}
}

func TestTransitionErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := createSessionVia(t, srv, uuid.New(), start)

	// Illegal move from scheduled.
	resp, body := postJSON(t, srv, "/sessions/"+id+"/transition", map[string]any{"action": "end"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", body["code"])

	// Unknown action fails validation before reaching the service.
	resp, body = postJSON(t, srv, "/sessions/"+id+"/transition", map[string]any{"action": "explode"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "validation_failed", body["code"])

	// Unknown session.
	resp, body = postJSON(t, srv, fmt.Sprintf("/sessions/%s/transition", uuid.New()), map[string]any{"action": "initiate"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestCreateSessionConflictResponse(t *testing.T) {
	srv := newTestServer(t)
	teacherID := uuid.New()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	createSessionVia(t, srv, teacherID, start)

	resp, body := postJSON(t, srv, "/sessions", map[string]any{
		"class_id":    uuid.New(),
		"start_time":  start.AddDate(0, 0, 7).Add(30 * time.Minute),
		"end_time":    start.AddDate(0, 0, 7).Add(90 * time.Minute),
		"teacher_ids": []uuid.UUID{teacherID},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "schedule_conflict", body["code"])
	conflicts, ok := body["conflicts"].([]any)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	first := conflicts[0].(map[string]any)
	assert.Equal(t, "schedule", first["type"])
}

func TestMarkAttendanceOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id := createSessionVia(t, srv, uuid.New(), start)

	// Fetch the session to learn a student id.
	getResp, err := http.Get(srv.URL + "/sessions/" + id)
	require.NoError(t, err)
	defer getResp.Body.Close()
	var sess map[string]any
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&sess))
	students := sess["student_ids"].([]any)
	studentID := students[0].(string)

	// Attendance before the session runs maps to 409.
	resp2, body2 := postJSON(t, srv, "/sessions/"+id+"/attendance", map[string]any{
		"participant_id": studentID,
		"status":         "present",
	})
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
	assert.Equal(t, "invalid_transition", body2["code"])

	for _, action := range []string{"initiate", "start"} {
		resp3, _ := postJSON(t, srv, "/sessions/"+id+"/transition", map[string]any{"action": action})
		require.Equal(t, http.StatusOK, resp3.StatusCode)
	}

	resp4, body4 := postJSON(t, srv, "/sessions/"+id+"/attendance", map[string]any{
		"participant_id": studentID,
		"status":         "present",
	})
	assert.Equal(t, http.StatusOK, resp4.StatusCode)
	attendance := body4["attendance"].(map[string]any)
	assert.Equal(t, "present", attendance[studentID])
}

func TestBillingCalculateNoDataEnvelope(t *testing.T) {
	srv := newTestServer(t)

	// A plan and a subscription, but no sessions in the period.
	resp, plan := postJSON(t, srv, "/plans", map[string]any{
		"name":        "standard",
		"hourly_rate": "40",
		"currency":    "USD",
		"cadence":     "month",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	studentID := uuid.New()
	resp, sub := postJSON(t, srv, "/subscriptions", map[string]any{
		"student_id": studentID,
		"plan_id":    plan["ID"],
		"start_date": time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	calcReq := map[string]any{
		"student_id":      studentID,
		"subscription_id": sub["ID"],
		"period_start":    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		"period_end":      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	}

	resp, body := postJSON(t, srv, "/billing/calculate", calcReq)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["no_billing_data"])

	// Invoice generation refuses the same empty period.
	resp, body = postJSON(t, srv, "/billing/invoices", calcReq)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "no_billing_data", body["code"])
}

func TestDuplicateActiveSubscriptionOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, plan := postJSON(t, srv, "/plans", map[string]any{
		"name":        "standard",
		"hourly_rate": "40",
		"currency":    "USD",
		"cadence":     "month",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	studentID := uuid.New()
	subscribe := map[string]any{
		"student_id": studentID,
		"plan_id":    plan["ID"],
		"start_date": time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	resp, _ = postJSON(t, srv, "/subscriptions", subscribe)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv, "/subscriptions", subscribe)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "active_subscription_exists", body["code"])
}

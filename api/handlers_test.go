/*
handlers_test.go - HTTP tests for the attendance API

Tests for:
- Person and event creation/listing
- Attendance registration, history and statistics
- Error kind to status mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

type testServer struct {
	t      *testing.T
	mem    *store.Memory
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(attendance.NewRegistry(mem, nil), nil)
	return &testServer{t: t, mem: mem, router: NewRouter(h, []string{"*"})}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func register(personType string, personID int, date, status string) map[string]any {
	return map[string]any{"personType": personType, "personId": personID, "date": date, "status": status}
}

// =============================================================================
// PEOPLE / EVENTS
// =============================================================================

func TestCreateAndListPeople(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/students", map[string]any{"name": "Ana", "id": 42})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ana","status":"Active"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/tutors", map[string]any{"name": "Eva"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Eva"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","status":"Active"}]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/administrators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateEvent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/events", map[string]any{"title": "Open day", "date": "2024-04-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"Open day","date":"2024-04-01"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestCreatePerson_InvalidBody(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/teachers", "[1,2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendanceScenario(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/students", map[string]any{"name": "Ana"}).Code)

	rec := s.do(http.MethodPost, "/api/attendance", register("Student", 1, "2024-01-10", "Justified"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"personId":1,"personType":"Student","date":"2024-01-10","status":"Justified"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/attendance", register("student", 1, "2024-01-11", "Unjustified"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/attendance/Student/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]attendance.AttendanceRecord](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-01-10", history[0].Date)
	assert.Equal(t, "2024-01-11", history[1].Date)

	rec = s.do(http.MethodGet, "/api/attendance/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SummaryDTO{Total: 2, Justified: 1, Unjustified: 1, PctJustified: 50, PctUnjustified: 50}, decode[SummaryDTO](t, rec))

	rec = s.do(http.MethodGet, "/api/attendance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]attendance.AttendanceRecord](t, rec), 2)
}

func TestRegister_Errors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/tutors", map[string]any{"name": "Eva"}).Code)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown teacher", register("Teacher", 999, "2024-01-10", "Justified"), http.StatusNotFound, "not_found"},
		{"tutor not eligible", register("Tutor", 1, "2024-01-10", "Justified"), http.StatusBadRequest, "invalid_argument"},
		{"unknown type", register("Parent", 1, "2024-01-10", "Justified"), http.StatusBadRequest, "invalid_argument"},
		{"missing person id", map[string]any{"personType": "Student", "date": "d", "status": "Justified"}, http.StatusBadRequest, "invalid_argument"},
		{"missing date", map[string]any{"personType": "Student", "personId": 1, "status": "Justified"}, http.StatusBadRequest, "invalid_argument"},
		{"malformed body", "{", http.StatusBadRequest, "invalid_argument"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/attendance", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode[ErrorResponse](t, rec).Code)
		})
	}

	rec := s.do(http.MethodGet, "/api/attendance", nil)
	assert.JSONEq(t, `[]`, rec.Body.String(), "failed registrations never reach the ledger")
}

func TestRegister_StorageWriteFault(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/students", map[string]any{"name": "Ana"}).Code)

	s.mem.FailSave = errors.New("disk full")
	rec := s.do(http.MethodPost, "/api/attendance", register("Student", 1, "2024-01-10", "Justified"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage_write_fault", decode[ErrorResponse](t, rec).Code)
}

func TestRegister_StorageReadFault(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/students", map[string]any{"name": "Ana"}).Code)

	s.mem.FailLoad = errors.New("permission denied")
	rec := s.do(http.MethodPost, "/api/attendance", register("Student", 1, "2024-01-10", "Justified"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage_read_fault", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/students", map[string]any{"name": "Bea"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Reads mask the fault with the empty default.
	rec = s.do(http.MethodGet, "/api/attendance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	s.mem.FailLoad = nil
	rec = s.do(http.MethodGet, "/api/students", nil)
	assert.JSONEq(t, `[{"id":1,"name":"Ana","status":"Active"}]`, rec.Body.String(), "stored data survives the faulted writes")
}

func TestHistory_Errors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/teachers", map[string]any{"name": "Luis"}).Code)

	rec := s.do(http.MethodGet, "/api/attendance/Teacher/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "known person without entries")

	cases := map[string]struct {
		path   string
		status int
	}{
		"unknown person":  {"/api/attendance/Teacher/2", http.StatusNotFound},
		"non-integer id":  {"/api/attendance/Teacher/abc", http.StatusBadRequest},
		"unknown type":    {"/api/attendance/Parent/1", http.StatusBadRequest},
		"ineligible type": {"/api/attendance/Tutor/1", http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestStatistics_EmptyLedger(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/attendance/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"justified":0,"unjustified":0,"pctJustified":0,"pctUnjustified":0}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

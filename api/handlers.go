/*
handlers.go - HTTP API handlers for the attendance ledger

ENDPOINTS:
  People (students, teachers, tutors, administrators):
    GET    /api/{collection}                  List in insertion order
    POST   /api/{collection}                  Create from a JSON object

  Events:
    GET    /api/events                        List events
    POST   /api/events                        Create event

  Attendance:
    GET    /api/attendance                    Whole ledger
    POST   /api/attendance                    Register an entry
    GET    /api/attendance/stats              Justified/unjustified summary
    GET    /api/attendance/{type}/{personId}  History of one person

ERROR HANDLING:
  Errors are returned as JSON with a stable code:
  - 400 invalid_argument:    malformed body, unknown type, non-integer id
  - 404 not_found:           person does not resolve
  - 500 storage_write_fault: the change was not persisted
  - 503 storage_read_fault:  the store could not be read for a change

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *attendance.Registry

	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new handler over registry.
func NewHandler(registry *attendance.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		Registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Index answers the liveness probe at "/".
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("attendance API is running"))
}

// =============================================================================
// PEOPLE / EVENTS
// =============================================================================

// ListPeople returns a handler listing every person of type pt.
func (h *Handler) ListPeople(pt attendance.PersonType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		people, err := h.Registry.ListPeople(r.Context(), pt)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, people)
	}
}

// CreatePerson returns a handler inserting a person of type pt.
func (h *Handler) CreatePerson(pt attendance.PersonType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attrs, ok := decodeAttributes(w, r)
		if !ok {
			return
		}
		p, err := h.Registry.AddPerson(r.Context(), pt, attrs)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// ListEvents returns all events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.ListEvents(r.Context()))
}

// CreateEvent creates an event from an arbitrary JSON object.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	attrs, ok := decodeAttributes(w, r)
	if !ok {
		return
	}
	e, err := h.Registry.AddEvent(r.Context(), attrs)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func decodeAttributes(w http.ResponseWriter, r *http.Request) (attendance.Attributes, bool) {
	var attrs attendance.Attributes
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "Invalid request body", err)
		return nil, false
	}
	return attrs, true
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// ListAttendance returns the whole ledger.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.ListAttendance(r.Context()))
}

// RegisterAttendance appends an entry for a student or teacher.
func (h *Handler) RegisterAttendance(w http.ResponseWriter, r *http.Request) {
	var req RegisterAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "Missing required fields", err)
		return
	}

	pt, err := attendance.ParsePersonType(req.PersonType)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	rec, err := h.Registry.Register(r.Context(), pt, *req.PersonID, req.Date, req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetHistory returns the entries of one person.
// The path id is parsed to an integer before any comparison.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	pt, err := attendance.ParsePersonType(chi.URLParam(r, "type"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	raw := chi.URLParam(r, "personId")
	personID, err := strconv.Atoi(raw)
	if err != nil {
		h.writeDomainError(w, r, &attendance.InvalidArgumentError{Field: "personId", Value: raw, Reason: "must be an integer"})
		return
	}

	history, err := h.Registry.History(r.Context(), pt, personID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// GetStatistics returns the ledger summary.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTO(h.Registry.Statistics(r.Context())))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps attendance error kinds to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case attendance.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid_argument", "Invalid argument", err)
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "Not found", err)
	case errors.Is(err, attendance.ErrStorageWrite):
		writeError(w, http.StatusInternalServerError, "storage_write_fault", "Change was not persisted", err)
	case errors.Is(err, attendance.ErrStorageRead):
		writeError(w, http.StatusServiceUnavailable, "storage_read_fault", "Record store unavailable", err)
	default:
		h.logger.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal error", err)
	}
}

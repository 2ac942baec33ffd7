/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Populates the record store with realistic data through the same
  registry operations the API uses, so every scenario goes through
  resolution and the ledger rules.

AVAILABLE SCENARIOS:
  small-class:  Three students, one teacher, a week of attendance
  staff-roster: Teachers, tutors, administrators and events, no attendance

HOW SCENARIOS WORK:
  Scenarios only add records; nothing is reset. Attendance is registered
  against the ids returned by the inserts, so loading a scenario into a
  store that already holds data still binds every entry correctly.

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/load
  {"scenario_id": "small-class"}
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, reg *attendance.Registry) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "small-class",
			Name:        "Small Class",
			Description: "Three students and one teacher with a week of attendance",
		},
		load: loadSmallClassScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "staff-roster",
			Name:        "Staff Roster",
			Description: "Teachers, tutors, administrators and upcoming events",
		},
		load: loadStaffRosterScenario,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario adds a scenario's records to the store.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "Missing scenario_id", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Scenario not found", nil)
		return
	}
	if err := s.load(r.Context(), h.Registry); err != nil {
		h.writeDomainError(w, r, fmt.Errorf("load scenario %s: %w", s.ID, err))
		return
	}

	h.logger.InfoContext(r.Context(), "scenario loaded", "scenario", s.ID)
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSmallClassScenario(ctx context.Context, reg *attendance.Registry) error {
	var students []attendance.Person
	for _, attrs := range []attendance.Attributes{
		{"name": "Ana Torres", "grade": "5A"},
		{"name": "Bruno Díaz", "grade": "5A"},
		{"name": "Carla Ruiz", "grade": "5A"},
	} {
		p, err := reg.AddPerson(ctx, attendance.Student, attrs)
		if err != nil {
			return err
		}
		students = append(students, p)
	}

	teacher, err := reg.AddPerson(ctx, attendance.Teacher, attendance.Attributes{"name": "Marta Gil", "subject": "Mathematics"})
	if err != nil {
		return err
	}

	days := []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"}
	// Absences only; a present day leaves no entry.
	absences := []struct {
		person attendance.Person
		pt     attendance.PersonType
		day    int
		status string
	}{
		{students[0], attendance.Student, 0, attendance.Justified},
		{students[1], attendance.Student, 1, attendance.Unjustified},
		{students[1], attendance.Student, 2, attendance.Unjustified},
		{students[2], attendance.Student, 3, attendance.Justified},
		{teacher, attendance.Teacher, 4, attendance.Justified},
	}
	for _, a := range absences {
		if _, err := reg.Register(ctx, a.pt, a.person.ID, days[a.day], a.status); err != nil {
			return err
		}
	}
	return nil
}

func loadStaffRosterScenario(ctx context.Context, reg *attendance.Registry) error {
	people := []struct {
		pt    attendance.PersonType
		attrs attendance.Attributes
	}{
		{attendance.Teacher, attendance.Attributes{"name": "Marta Gil", "subject": "Mathematics"}},
		{attendance.Teacher, attendance.Attributes{"name": "Pablo Soto", "subject": "History"}},
		{attendance.Tutor, attendance.Attributes{"name": "Elena Vidal", "group": "5A"}},
		{attendance.Administrator, attendance.Attributes{"name": "Jorge Lara", "role": "Secretary"}},
	}
	for _, p := range people {
		if _, err := reg.AddPerson(ctx, p.pt, p.attrs); err != nil {
			return err
		}
	}

	for _, e := range []attendance.Attributes{
		{"title": "Parent meeting", "date": "2024-04-12"},
		{"title": "Science fair", "date": "2024-05-20"},
	} {
		if _, err := reg.AddEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

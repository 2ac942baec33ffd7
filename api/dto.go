/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

  People and events are returned as attendance.Person / attendance.Event,
  whose JSON form is already the flat wire shape ({"id":1,"name":...}).

VALIDATION:
  Request structs carry go-playground/validator tags for presence checks.
  Enum checks (personType) are done by the attendance package so that the
  same rule applies to every caller.
*/
package api

import "github.com/warp/attendance-engine/attendance"

// RegisterAttendanceRequest is the body of POST /api/attendance.
type RegisterAttendanceRequest struct {
	PersonID   *int   `json:"personId" validate:"required"`
	PersonType string `json:"personType" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

// SummaryDTO is the body of GET /api/attendance/stats.
type SummaryDTO struct {
	Total          int     `json:"total"`
	Justified      int     `json:"justified"`
	Unjustified    int     `json:"unjustified"`
	PctJustified   float64 `json:"pctJustified"`
	PctUnjustified float64 `json:"pctUnjustified"`
}

func toSummaryDTO(s attendance.Summary) SummaryDTO {
	return SummaryDTO{
		Total:          s.Total,
		Justified:      s.Justified,
		Unjustified:    s.Unjustified,
		PctJustified:   s.PctJustified.InexactFloat64(),
		PctUnjustified: s.PctUnjustified.InexactFloat64(),
	}
}

// ErrorResponse is returned for every non-2xx response.
// Code is stable and meant for clients to branch on.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

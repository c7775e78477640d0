/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/dorodrig/journey-engine/journey"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitEventRequest is an inbound clock event.
type SubmitEventRequest struct {
	Kind      string  `json:"kind"`
	Timestamp string  `json:"timestamp"` // RFC3339; empty = now
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// JourneyEventDTO is one recorded event in API responses.
type JourneyEventDTO struct {
	Kind          string  `json:"kind"`
	Timestamp     string  `json:"timestamp"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ValidLocation bool    `json:"valid_location"`
}

// JourneyDTO is a journey in API responses.
type JourneyDTO struct {
	ID            string            `json:"id"`
	EmployeeID    string            `json:"employee_id"`
	Date          string            `json:"date"`
	Status        string            `json:"status"`
	Events        []JourneyEventDTO `json:"events"`
	HoursWorked   float64           `json:"hours_worked"`
	OvertimeHours float64           `json:"overtime_hours"`
	AutoClosed    bool              `json:"auto_closed"`
	ClosureReason string            `json:"closure_reason,omitempty"`
	Version       int64             `json:"version"`
}

// EmployeeDTO is a directory record in API responses.
type EmployeeDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	ZoneLat     float64 `json:"zone_lat"`
	ZoneLng     float64 `json:"zone_lng"`
	ZoneRadiusM float64 `json:"zone_radius_m"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CreateEmployeeRequest creates or updates a directory record.
type CreateEmployeeRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	ZoneLat     float64 `json:"zone_lat"`
	ZoneLng     float64 `json:"zone_lng"`
	ZoneRadiusM float64 `json:"zone_radius_m"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toJourneyDTO(j journey.Journey) JourneyDTO {
	events := make([]JourneyEventDTO, len(j.Events))
	for i, ev := range j.Events {
		events[i] = JourneyEventDTO{
			Kind:          string(ev.Kind),
			Timestamp:     ev.Timestamp.Format(time.RFC3339),
			Lat:           ev.Coordinate.Lat,
			Lng:           ev.Coordinate.Lng,
			ValidLocation: ev.ValidLocation,
		}
	}

	worked, _ := j.HoursWorked.Float64()
	overtime, _ := j.OvertimeHours.Float64()

	return JourneyDTO{
		ID:            string(j.ID),
		EmployeeID:    j.EmployeeID,
		Date:          journey.DateKey(j.Date),
		Status:        string(j.Status),
		Events:        events,
		HoursWorked:   worked,
		OvertimeHours: overtime,
		AutoClosed:    j.AutoClosed,
		ClosureReason: j.ClosureReason,
		Version:       j.Version,
	}
}

func toEmployeeDTO(emp journey.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:          emp.ID,
		Name:        emp.Name,
		Email:       emp.Email,
		ZoneLat:     emp.ZoneCenter.Lat,
		ZoneLng:     emp.ZoneCenter.Lng,
		ZoneRadiusM: emp.ZoneRadiusM,
	}
	if !emp.CreatedAt.IsZero() {
		dto.CreatedAt = emp.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

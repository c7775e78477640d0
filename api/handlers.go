/*
handlers.go - HTTP API handlers for the journey engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Events:
    POST   /api/employees/{id}/events   Submit a clock event
    GET    /api/employees/{id}/journey  Get a day's journey (?date=YYYY-MM-DD)

  Directory:
    GET    /api/employees               List employees
    POST   /api/employees               Create/update employee
    GET    /api/employees/{id}          Get employee

ERROR HANDLING:
  The engine's typed errors map to HTTP status codes so the employee-facing
  client can explain why a clock action failed:
  - 400: Malformed input, invalid coordinate, unknown event kind
  - 404: Unknown employee or journey
  - 409: Concurrent writer won (retryable) or journey already closed
  - 422: Out-of-order event or location outside the authorized zone
  - 500: Internal errors

SECURITY NOTE:
  Identity/session management is an external collaborator; the employee id
  in the path is trusted here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - journey/service.go: The logic behind SubmitEvent
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dorodrig/journey-engine/journey"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeDirectory extends the read-only directory with the writes the
// admin endpoints use.
type EmployeeDirectory interface {
	journey.Directory
	SaveEmployee(ctx context.Context, emp journey.Employee) error
	ListEmployees(ctx context.Context) ([]journey.Employee, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *journey.Service
	Employees EmployeeDirectory
	Metrics   *Metrics
}

// NewHandler creates a new handler.
func NewHandler(service *journey.Service, employees EmployeeDirectory, metrics *Metrics) *Handler {
	return &Handler{Service: service, Employees: employees, Metrics: metrics}
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// SubmitEvent applies one clock event for an employee.
// POST /api/employees/{id}/events
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := journey.EventKind(strings.ToLower(strings.TrimSpace(req.Kind)))

	at := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp format (use RFC3339)", err)
			return
		}
		at = parsed
	}

	coord := journey.Coordinate{Lat: req.Lat, Lng: req.Lng}

	j, err := h.Service.SubmitEvent(r.Context(), employeeID, kind, at, coord)
	if h.Metrics != nil {
		h.Metrics.EventsSubmitted.WithLabelValues(string(kind), outcomeLabel(err)).Inc()
	}
	if err != nil {
		h.writeSubmitError(w, j, err)
		return
	}

	writeJSON(w, http.StatusOK, toJourneyDTO(j))
}

// writeSubmitError maps the engine's error taxonomy to HTTP responses,
// attaching the current journey state where the client can use it.
func (h *Handler) writeSubmitError(w http.ResponseWriter, j journey.Journey, err error) {
	switch {
	case errors.Is(err, journey.ErrAlreadyTerminal):
		// Late event on a closed journey: no-op, report the closed state.
		writeJSON(w, http.StatusConflict, struct {
			JourneyDTO
			Notice string `json:"notice"`
		}{toJourneyDTO(j), "journey already closed"})
	case errors.Is(err, journey.ErrVersionConflict):
		writeError(w, http.StatusConflict, "Concurrent update, reload and retry", err)
	case errors.Is(err, journey.ErrLocationRejected):
		writeError(w, http.StatusUnprocessableEntity, "Location outside authorized zone", err)
	case errors.Is(err, journey.ErrInvalidTransition), errors.Is(err, journey.ErrEventOutOfOrder):
		writeError(w, http.StatusUnprocessableEntity, "Event not allowed from current state", err)
	case errors.Is(err, journey.ErrInvalidCoordinate), errors.Is(err, journey.ErrUnknownEventKind):
		writeError(w, http.StatusBadRequest, "Invalid event", err)
	case journey.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to apply event", err)
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case journey.IsRetryable(err):
		return "conflict"
	case journey.IsClientError(err), journey.IsNotFound(err):
		return "rejected"
	default:
		return "error"
	}
}

// GetJourney returns an employee's journey for a calendar date.
// GET /api/employees/{id}/journey?date=YYYY-MM-DD (default: today)
func (h *Handler) GetJourney(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}

	j, err := h.Service.GetJourney(r.Context(), employeeID, date)
	if err != nil {
		if journey.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No journey for that date", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load journey", err)
		return
	}

	writeJSON(w, http.StatusOK, toJourneyDTO(j))
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns all directory records.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single directory record.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if journey.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Employee not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or updates a directory record.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	center := journey.Coordinate{Lat: req.ZoneLat, Lng: req.ZoneLng}
	if !journey.ValidGeoBounds(center) {
		writeError(w, http.StatusBadRequest, "Invalid zone center coordinate", &journey.InvalidCoordinateError{Coordinate: center})
		return
	}

	emp := journey.Employee{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		ZoneCenter:  center,
		ZoneRadiusM: req.ZoneRadiusM,
	}

	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

/*
errors.go - Centralized error types for the journey engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match on sentinels with errors.Is() and extract detail from the
  structured wrappers with errors.As().

ERROR CATEGORIES:
  1. Transition errors - Event not allowed from the current state
  2. Location errors   - Event outside the authorized zone, or bad input
  3. Store errors      - Concurrency conflicts, missing records

PROPAGATION POLICY:
  Nothing in this package is fatal to the process. The live request path
  surfaces these errors to the caller; the scheduler retries conflicts a
  bounded number of times, then logs and skips the journey.

SEE ALSO:
  - machine.go: Produces transition and location errors
  - store.go: Produces conflict and not-found errors
*/
package journey

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTransition is returned when an event is not allowed from the
	// journey's current state (e.g. a second Entry, or Exit during a break).
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrEventOutOfOrder is returned when an event's timestamp precedes the
	// last recorded event. Wrapped under the invalid-transition family.
	ErrEventOutOfOrder = errors.New("event timestamp out of order")

	// ErrLocationRejected is returned when an event occurred outside the
	// authorized zone. The event is not appended; the journey is unchanged.
	ErrLocationRejected = errors.New("location outside authorized zone")

	// ErrInvalidCoordinate is returned for malformed lat/lng input, before
	// the event reaches the state machine.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrAlreadyTerminal is returned for a late event on a closed journey.
	// This is a no-op for the caller, not a hard failure.
	ErrAlreadyTerminal = errors.New("journey already terminal")

	// ErrVersionConflict is returned when a concurrent writer won the
	// compare-and-swap. The caller reloads and retries or discards.
	ErrVersionConflict = errors.New("concurrent modification detected")

	// ErrJourneyNotFound is returned when no journey exists for the
	// requested employee and date.
	ErrJourneyNotFound = errors.New("journey not found")

	// ErrEmployeeNotFound is returned when the directory has no record for
	// the employee submitting an event.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrUnknownEventKind is returned for an event kind outside the table.
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidTransitionError explains why an event was rejected by the table,
// so the employee-facing client can say more than "error".
type InvalidTransitionError struct {
	From   Status
	Event  EventKind
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot apply %s while %s: %s", e.Event, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot apply %s while %s", e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// LocationRejectedError reports how far outside the zone the event occurred.
type LocationRejectedError struct {
	Event           EventKind
	DistanceMeters  float64
	ToleranceMeters float64
}

func (e *LocationRejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %.1fm from authorized zone center (tolerance %.1fm)",
		e.Event, e.DistanceMeters, e.ToleranceMeters)
}

func (e *LocationRejectedError) Unwrap() error { return ErrLocationRejected }

// InvalidCoordinateError reports an out-of-range lat/lng pair.
type InvalidCoordinateError struct {
	Coordinate Coordinate
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate (%.6f, %.6f): latitude must be within [-90,90], longitude within [-180,180]",
		e.Coordinate.Lat, e.Coordinate.Lng)
}

func (e *InvalidCoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// OutOfOrderError reports an event submitted behind the journey's clock.
type OutOfOrderError struct {
	Event    EventKind
	At       time.Time
	LastSeen time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("%s at %s precedes last recorded event at %s",
		e.Event, e.At.Format(time.RFC3339), e.LastSeen.Format(time.RFC3339))
}

func (e *OutOfOrderError) Unwrap() error { return ErrEventOutOfOrder }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on reload-and-retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an engine failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrEventOutOfOrder) ||
		errors.Is(err, ErrLocationRejected) ||
		errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrUnknownEventKind) ||
		errors.Is(err, ErrAlreadyTerminal)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJourneyNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

/*
service.go - Live clock-event path

PURPOSE:
  Orchestrates one inbound clock event end to end:
  1. Directory lookup: the employee's authorized zone center and radius
  2. Geofence validation: block state-changing events outside the zone
  3. GetOrCreate the day's journey
  4. Apply the event through the state machine
  5. Persist via compare-and-swap

CONCURRENCY:
  The live path surfaces ErrVersionConflict directly to the caller - the
  client decides whether to retry. The one exception: when a reload shows
  the journey went terminal while we raced (the scheduler's forced close
  won), a manual Exit is reported as ErrAlreadyTerminal alongside the
  closed journey, so the client sees an idempotent-looking outcome rather
  than a spurious conflict.

SEE ALSO:
  - machine.go: Transition rules
  - api/handlers.go: HTTP surface over SubmitEvent
  - api/scheduler.go: The other writer on the same journeys
*/
package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Service is the inbound event API consumed by the controller layer.
type Service struct {
	Store     Store
	Directory Directory

	// ToleranceMeters is the geofence tolerance radius fallback for
	// employees whose directory record carries no explicit zone radius.
	ToleranceMeters float64

	// DailyThresholdHours is the overtime threshold handed to the hours
	// calculator on every mutation.
	DailyThresholdHours decimal.Decimal
}

// NewService wires a Service with the given store and directory.
func NewService(store Store, directory Directory, toleranceMeters float64, thresholdHours decimal.Decimal) *Service {
	return &Service{
		Store:               store,
		Directory:           directory,
		ToleranceMeters:     toleranceMeters,
		DailyThresholdHours: thresholdHours,
	}
}

// SubmitEvent validates and applies one clock event for an employee.
// On rejection the returned journey is the current (unchanged) state, so
// callers can show the employee where they actually are in the day.
func (s *Service) SubmitEvent(ctx context.Context, employeeID string, kind EventKind, at time.Time, coord Coordinate) (Journey, error) {
	if !kind.Valid() {
		return Journey{}, fmt.Errorf("%q: %w", kind, ErrUnknownEventKind)
	}

	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return Journey{}, err
	}

	ev := JourneyEvent{Kind: kind, Timestamp: at.UTC(), Coordinate: coord}

	if kind.RequiresValidLocation() {
		tolerance := emp.ZoneRadiusM
		if tolerance <= 0 {
			tolerance = s.ToleranceMeters
		}

		inside, err := ValidateLocation(coord, emp.ZoneCenter, tolerance)
		if err != nil {
			return Journey{}, err
		}
		if !inside {
			j, _ := s.Store.Get(ctx, employeeID, at)
			return j, &LocationRejectedError{
				Event:           kind,
				DistanceMeters:  HaversineMeters(coord, emp.ZoneCenter),
				ToleranceMeters: tolerance,
			}
		}
		ev.ValidLocation = true
	}

	j, err := s.Store.GetOrCreate(ctx, employeeID, at)
	if err != nil {
		return Journey{}, err
	}

	updated, err := Apply(j, ev, s.DailyThresholdHours)
	if err != nil {
		return j, err
	}

	if err := s.Store.CompareAndSwap(ctx, updated); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// Reload once: if the scheduler closed the journey under us,
			// report the terminal state instead of a raw conflict.
			current, getErr := s.Store.Get(ctx, employeeID, at)
			if getErr == nil && current.Status.IsTerminal() {
				return current, ErrAlreadyTerminal
			}
		}
		return j, err
	}

	return updated, nil
}

// GetJourney returns the employee's journey for a calendar date.
func (s *Service) GetJourney(ctx context.Context, employeeID string, date time.Time) (Journey, error) {
	return s.Store.Get(ctx, employeeID, date)
}

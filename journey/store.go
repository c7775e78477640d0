/*
store.go - Persistence interfaces for journeys and the employee directory

PURPOSE:
  Defines the boundary between the engine and the database. Stores hold one
  journey per (employee, calendar date) and serialize all mutations through
  compare-and-swap on a monotonically incrementing version.

COMPARE-AND-SWAP CONTRACT:
  Every mutation goes:

    j, _ := store.GetOrCreate(ctx, employeeID, date)
    updated, err := journey.Apply(j, ev, threshold)   // bumps Version
    err = store.CompareAndSwap(ctx, updated)          // stored must be Version-1

  A live clock-out and a concurrent scheduler sweep on the same journey can
  never both succeed silently: the loser receives ErrVersionConflict, must
  reload, and either no-ops (journey now terminal) or retries. There is no
  global lock and no Update/Delete surface.

IMPLEMENTATIONS:
  - journey/store: in-memory (tests/dev)
  - store/sqlite:  production SQLite

SEE ALSO:
  - service.go: Live request path built on these interfaces
  - api/scheduler.go: Sweep built on ListOpenSince + CompareAndSwap
*/
package journey

import (
	"context"
	"time"
)

// =============================================================================
// JOURNEY STORE
// =============================================================================

// Store persists journeys, one per (employeeID, calendar date).
type Store interface {
	// GetOrCreate returns the journey for the employee on the given date,
	// creating an empty NotStarted journey if none exists. Safe under
	// concurrent calls: exactly one journey ever exists per (employee, date).
	GetOrCreate(ctx context.Context, employeeID string, date time.Time) (Journey, error)

	// Get returns the journey for the employee on the given date, or
	// ErrJourneyNotFound.
	Get(ctx context.Context, employeeID string, date time.Time) (Journey, error)

	// CompareAndSwap persists updated iff the stored version equals
	// updated.Version-1. Returns ErrVersionConflict when a concurrent
	// writer won.
	CompareAndSwap(ctx context.Context, updated Journey) error

	// ListOpenSince returns all non-terminal journeys whose Entry event is
	// at or before the given instant. Journeys with no Entry yet are never
	// candidates.
	ListOpenSince(ctx context.Context, before time.Time) ([]Journey, error)
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// Employee is a directory record: identity plus the authorized geofence the
// employee must clock in from.
type Employee struct {
	ID          string
	Name        string
	Email       string
	ZoneCenter  Coordinate
	ZoneRadiusM float64
	CreatedAt   time.Time
}

// Directory supplies employee identity and authorized-zone data. The
// directory itself is maintained outside this engine; the engine only reads.
type Directory interface {
	// GetEmployee returns the record for id, or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, id string) (Employee, error)
}

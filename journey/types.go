/*
Package journey provides the work-journey lifecycle engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking a single
  employee's workday from clock-in through scheduled breaks to clock-out.
  It validates that each clock event occurs within an authorized geographic
  zone, computes worked/overtime hours, and supports system-initiated closure
  of journeys left open past the configured maximum shift duration.

KEY CONCEPTS IN THIS FILE (types.go):
  - Journey: One employee's single-day work record (entry to exit)
  - JourneyEvent: A single recorded clock event (kind, timestamp, coordinate)
  - EventKind: Named clock actions (Entry, LunchStart, Exit, ForcedExit, ...)
  - Status: Journey lifecycle state, always derived from the event sequence
  - Coordinate: WGS-84 lat/lng pair

DESIGN PRINCIPLES:
  1. Append-only: Events are never modified or removed, only appended
  2. Derived state: Status and hours are functions of the event sequence
  3. Precision: Uses decimal.Decimal for hour arithmetic
  4. Optimistic concurrency: Every mutation bumps Version and goes through
     compare-and-swap; there is no in-place mutation

USAGE:
  j := journey.New("emp-123", journey.DateOf(time.Now()))
  updated, err := journey.Apply(j, journey.JourneyEvent{
      Kind:      journey.EventEntry,
      Timestamp: time.Now(),
  }, journey.DefaultDailyThreshold)

SEE ALSO:
  - machine.go: Transition table and event application
  - hours.go: Worked/overtime hour computation
  - geofence.go: Authorized-zone validation
  - store.go: Persistence interfaces
*/
package journey

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// COORDINATE - WGS-84 position attached to clock events
// =============================================================================

type Coordinate struct {
	Lat float64
	Lng float64
}

// =============================================================================
// EVENT KINDS - Named clock actions
// =============================================================================

type EventKind string

const (
	EventEntry               EventKind = "entry"
	EventMorningBreakStart   EventKind = "morning_break_start"
	EventMorningBreakEnd     EventKind = "morning_break_end"
	EventLunchStart          EventKind = "lunch_start"
	EventLunchEnd            EventKind = "lunch_end"
	EventAfternoonBreakStart EventKind = "afternoon_break_start"
	EventAfternoonBreakEnd   EventKind = "afternoon_break_end"
	EventExit                EventKind = "exit"

	// EventForcedExit is scheduler-issued only. It is the one event kind that
	// bypasses geofence validation, since no human is present to produce a
	// coordinate.
	EventForcedExit EventKind = "forced_exit"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventEntry, EventMorningBreakStart, EventMorningBreakEnd,
		EventLunchStart, EventLunchEnd,
		EventAfternoonBreakStart, EventAfternoonBreakEnd,
		EventExit, EventForcedExit:
		return true
	}
	return false
}

// RequiresValidLocation reports whether this event kind must pass geofence
// validation before it can be applied.
func (k EventKind) RequiresValidLocation() bool {
	return k != EventForcedExit
}

// intervalStarts maps each break/lunch "start" kind to its matching "end" kind.
var intervalStarts = map[EventKind]EventKind{
	EventMorningBreakStart:   EventMorningBreakEnd,
	EventLunchStart:          EventLunchEnd,
	EventAfternoonBreakStart: EventAfternoonBreakEnd,
}

// IsIntervalStart reports whether k opens a break/lunch interval.
func (k EventKind) IsIntervalStart() bool {
	_, ok := intervalStarts[k]
	return ok
}

// MatchingEnd returns the end kind for an interval-start kind.
func (k EventKind) MatchingEnd() (EventKind, bool) {
	end, ok := intervalStarts[k]
	return end, ok
}

// =============================================================================
// STATUS - Lifecycle state, deterministic function of events
// =============================================================================

type Status string

const (
	StatusNotStarted       Status = "not_started"
	StatusInProgress       Status = "in_progress"
	StatusOnMorningBreak   Status = "on_morning_break"
	StatusOnLunch          Status = "on_lunch"
	StatusOnAfternoonBreak Status = "on_afternoon_break"
	StatusCompleted        Status = "completed"
	StatusAutoClosed       Status = "auto_closed"
)

// IsTerminal reports whether no further events may be appended.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAutoClosed
}

// =============================================================================
// JOURNEY EVENT - One recorded clock event
// =============================================================================

type JourneyEvent struct {
	Kind          EventKind
	Timestamp     time.Time
	Coordinate    Coordinate
	ValidLocation bool
}

// =============================================================================
// JOURNEY - One employee's single-day work record
// =============================================================================

type JourneyID string

// Journey is the only shared mutable resource in the engine. It is never
// mutated in place: Apply returns a copy with the event appended and Version
// bumped, and persistence goes through Store.CompareAndSwap.
type Journey struct {
	ID         JourneyID
	EmployeeID string
	Date       time.Time // calendar date, midnight UTC

	// Ordered, append-only. Monotonically non-decreasing timestamps.
	Events []JourneyEvent

	Status        Status
	HoursWorked   decimal.Decimal
	OvertimeHours decimal.Decimal

	// AutoClosed is true only when the scheduler produced the terminal
	// transition via ForcedExit.
	AutoClosed    bool
	ClosureReason string

	// Version increments on every successful mutation. Compare-and-swap
	// succeeds only when the stored version matches Version-1.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an empty journey for an employee on a calendar date.
func New(employeeID string, date time.Time) Journey {
	now := time.Now().UTC()
	return Journey{
		ID:            JourneyID(uuid.NewString()),
		EmployeeID:    employeeID,
		Date:          DateOf(date),
		Status:        StatusNotStarted,
		HoursWorked:   decimal.Zero,
		OvertimeHours: decimal.Zero,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// EntryTime returns the timestamp of the Entry event, if recorded.
func (j Journey) EntryTime() (time.Time, bool) {
	for _, ev := range j.Events {
		if ev.Kind == EventEntry {
			return ev.Timestamp, true
		}
	}
	return time.Time{}, false
}

// ExitTime returns the timestamp of the Exit or ForcedExit event, if recorded.
func (j Journey) ExitTime() (time.Time, bool) {
	for _, ev := range j.Events {
		if ev.Kind == EventExit || ev.Kind == EventForcedExit {
			return ev.Timestamp, true
		}
	}
	return time.Time{}, false
}

// OpenInterval returns the start event of an unmatched break/lunch interval,
// if one is currently open.
func (j Journey) OpenInterval() (JourneyEvent, bool) {
	var open JourneyEvent
	found := false
	for _, ev := range j.Events {
		if ev.Kind.IsIntervalStart() {
			open = ev
			found = true
		} else if end, _ := open.Kind.MatchingEnd(); found && ev.Kind == end {
			found = false
		}
	}
	return open, found
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state behind the compare-and-swap contract.
func (j Journey) Clone() Journey {
	c := j
	c.Events = make([]JourneyEvent, len(j.Events))
	copy(c.Events, j.Events)
	return c
}

// =============================================================================
// CALENDAR DATES
// =============================================================================

// DateOf truncates a timestamp to its calendar date (midnight UTC).
// The (EmployeeID, Date) pair uniquely identifies a journey.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar date the way stores key it.
func DateKey(t time.Time) string {
	return DateOf(t).Format("2006-01-02")
}

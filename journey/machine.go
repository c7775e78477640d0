/*
machine.go - Journey state machine

PURPOSE:
  Validates and applies one clock event against the current journey state,
  producing a new journey or a typed rejection. This is the single place
  transition rules live; the live request path and the auto-close scheduler
  both go through Apply.

TRANSITION TABLE:
  NotStarted       --Entry--------------> InProgress
  InProgress       --MorningBreakStart--> OnMorningBreak
  OnMorningBreak   --MorningBreakEnd----> InProgress
  InProgress       --LunchStart---------> OnLunch
  OnLunch          --LunchEnd-----------> InProgress
  InProgress       --AfternoonBreakStart> OnAfternoonBreak
  OnAfternoonBreak --AfternoonBreakEnd--> InProgress
  InProgress       --Exit---------------> Completed   (all intervals closed)
  any non-terminal --ForcedExit---------> AutoClosed  (scheduler-issued)

GUARDS:
  - Every human-issued event requires a validated location.
  - Exit requires every opened break/lunch interval to be closed.
  - Event timestamps must be monotonically non-decreasing.
  - Terminal journeys (Completed, AutoClosed) accept nothing.

PURITY:
  Apply is a pure function of (journey, event, threshold). It never touches
  persistence; callers own the compare-and-swap. On success it appends the
  event, derives the new status, and recomputes hours.

SEE ALSO:
  - hours.go: Hour recomputation on every successful transition
  - service.go: Live request path (geofence + store around Apply)
  - api/scheduler.go: Forced-close path
*/
package journey

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Closure reasons recorded on terminal transitions.
const (
	ClosureReasonManual    = "manual clock-out"
	ClosureReasonAutoClose = "auto-closed: exceeded maximum shift duration"
)

// transitions holds the allowed (state, event) -> state table for
// human-issued events. ForcedExit is handled separately since it applies
// from any non-terminal state.
var transitions = map[Status]map[EventKind]Status{
	StatusNotStarted: {
		EventEntry: StatusInProgress,
	},
	StatusInProgress: {
		EventMorningBreakStart:   StatusOnMorningBreak,
		EventLunchStart:          StatusOnLunch,
		EventAfternoonBreakStart: StatusOnAfternoonBreak,
		EventExit:                StatusCompleted,
	},
	StatusOnMorningBreak: {
		EventMorningBreakEnd: StatusInProgress,
	},
	StatusOnLunch: {
		EventLunchEnd: StatusInProgress,
	},
	StatusOnAfternoonBreak: {
		EventAfternoonBreakEnd: StatusInProgress,
	},
}

// Apply validates ev against j's current state and returns the updated
// journey. The input journey is never mutated; on any rejection it is
// returned unchanged alongside the error (no partial mutation).
func Apply(j Journey, ev JourneyEvent, thresholdHours decimal.Decimal) (Journey, error) {
	if !ev.Kind.Valid() {
		return j, fmt.Errorf("%q: %w", ev.Kind, ErrUnknownEventKind)
	}

	if j.Status.IsTerminal() {
		return j, ErrAlreadyTerminal
	}

	if ev.Kind.RequiresValidLocation() && !ev.ValidLocation {
		return j, fmt.Errorf("%s requires a validated location: %w", ev.Kind, ErrLocationRejected)
	}

	if n := len(j.Events); n > 0 && ev.Timestamp.Before(j.Events[n-1].Timestamp) {
		return j, &OutOfOrderError{Event: ev.Kind, At: ev.Timestamp, LastSeen: j.Events[n-1].Timestamp}
	}

	var next Status
	switch {
	case ev.Kind == EventForcedExit:
		next = StatusAutoClosed
	default:
		to, ok := transitions[j.Status][ev.Kind]
		if !ok {
			return j, &InvalidTransitionError{From: j.Status, Event: ev.Kind}
		}
		if ev.Kind == EventExit {
			if open, isOpen := j.OpenInterval(); isOpen {
				return j, &InvalidTransitionError{
					From:   j.Status,
					Event:  ev.Kind,
					Reason: fmt.Sprintf("%s still open", open.Kind),
				}
			}
		}
		next = to
	}

	updated := j.Clone()
	updated.Events = append(updated.Events, ev)
	updated.Status = next

	switch next {
	case StatusCompleted:
		updated.ClosureReason = ClosureReasonManual
	case StatusAutoClosed:
		updated.AutoClosed = true
		updated.ClosureReason = ClosureReasonAutoClose
	}

	// Hours are recomputed from the event sequence using the event's own
	// timestamp as "now", so the persisted value is reproducible and never
	// depends on scan latency or wall-clock drift.
	hours := ComputeHours(updated.Events, ev.Timestamp, thresholdHours)
	updated.HoursWorked = hours.WorkedHours
	updated.OvertimeHours = hours.OvertimeHours

	updated.Version = j.Version + 1
	updated.UpdatedAt = ev.Timestamp

	return updated, nil
}

// DeriveStatus replays an event sequence through the transition table and
// returns the resulting status. Stored status must always equal the derived
// one, which is the invariant the store round-trip tests check.
func DeriveStatus(events []JourneyEvent) Status {
	status := StatusNotStarted
	for _, ev := range events {
		if ev.Kind == EventForcedExit {
			status = StatusAutoClosed
			continue
		}
		if to, ok := transitions[status][ev.Kind]; ok {
			status = to
		}
	}
	return status
}

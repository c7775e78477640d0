/*
hours.go - Worked and overtime hour computation

PURPOSE:
  Derives worked hours from a journey's recorded events: total elapsed time
  from Entry to Exit/ForcedExit, minus every matched break/lunch interval.
  Flags overtime beyond a configured daily threshold.

RULES:
  - Start is the Entry timestamp; without an Entry, worked hours is zero.
  - End is the Exit or ForcedExit timestamp. If neither exists, end = now,
    for in-progress display only - the result is never persisted.
  - Unmatched (started-but-not-ended) intervals contribute zero until closed.
  - Worked hours is clamped to >= 0 and can never exceed elapsed wall time.
  - Overtime = max(0, worked - threshold).

  Break boundaries are explicit start/end event pairs tied to their own event
  kinds. Nothing is inferred from hour-of-day ranges.

PRECISION:
  decimal.Decimal throughout; durations are converted at second granularity.

SEE ALSO:
  - machine.go: Recomputes hours on every successful transition
  - api/scheduler.go: Persists hours on forced close
*/
package journey

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyThreshold is the daily hours threshold above which time counts
// as overtime, matching the default maximum shift duration.
var DefaultDailyThreshold = decimal.NewFromInt(8)

var secondsPerHour = decimal.NewFromInt(3600)

// HoursResult is the output of ComputeHours.
type HoursResult struct {
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// ComputeHours computes worked and overtime hours for an event sequence.
// Pure and idempotent: the same events, now, and threshold always yield the
// same result.
func ComputeHours(events []JourneyEvent, now time.Time, thresholdHours decimal.Decimal) HoursResult {
	zero := HoursResult{WorkedHours: decimal.Zero, OvertimeHours: decimal.Zero}

	var start, end time.Time
	hasStart, hasEnd := false, false
	for _, ev := range events {
		switch ev.Kind {
		case EventEntry:
			if !hasStart {
				start = ev.Timestamp
				hasStart = true
			}
		case EventExit, EventForcedExit:
			if !hasEnd {
				end = ev.Timestamp
				hasEnd = true
			}
		}
	}
	if !hasStart {
		return zero
	}
	if !hasEnd {
		end = now
	}
	if end.Before(start) {
		return zero
	}

	elapsed := decimal.NewFromFloat(end.Sub(start).Seconds())

	// Subtract matched intervals only. An open interval at computation time
	// is excluded until its end event arrives.
	breaks := decimal.Zero
	var openStart time.Time
	var wantEnd EventKind
	open := false
	for _, ev := range events {
		if !open && ev.Kind.IsIntervalStart() {
			openStart = ev.Timestamp
			wantEnd, _ = ev.Kind.MatchingEnd()
			open = true
			continue
		}
		if open && ev.Kind == wantEnd {
			breaks = breaks.Add(decimal.NewFromFloat(ev.Timestamp.Sub(openStart).Seconds()))
			open = false
		}
	}

	workedSeconds := elapsed.Sub(breaks)
	if workedSeconds.IsNegative() {
		workedSeconds = decimal.Zero
	}

	worked := workedSeconds.Div(secondsPerHour)
	overtime := worked.Sub(thresholdHours)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}

	return HoursResult{WorkedHours: worked, OvertimeHours: overtime}
}

package journey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorodrig/journey-engine/journey"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newDay(t *testing.T) journey.Journey {
	t.Helper()
	return journey.New("emp-1", at(0, 0))
}

// applyAll runs a sequence of events through the machine, failing the test on
// the first rejection.
func applyAll(t *testing.T, j journey.Journey, events ...journey.JourneyEvent) journey.Journey {
	t.Helper()
	for _, e := range events {
		var err error
		j, err = journey.Apply(j, e, threshold)
		require.NoError(t, err, "applying %s", e.Kind)
	}
	return j
}

// =============================================================================
// VALID TRANSITIONS
// =============================================================================

func TestApply_FullDayHappyPath(t *testing.T) {
	// GIVEN: A fresh journey
	// WHEN: Applying a complete, well-ordered day
	// THEN: Every transition succeeds and the journey completes

	j := applyAll(t, newDay(t),
		ev(journey.EventEntry, at(8, 0)),
		ev(journey.EventMorningBreakStart, at(10, 0)),
		ev(journey.EventMorningBreakEnd, at(10, 15)),
		ev(journey.EventLunchStart, at(12, 0)),
		ev(journey.EventLunchEnd, at(13, 0)),
		ev(journey.EventAfternoonBreakStart, at(15, 30)),
		ev(journey.EventAfternoonBreakEnd, at(15, 45)),
		ev(journey.EventExit, at(17, 0)),
	)

	assert.Equal(t, journey.StatusCompleted, j.Status)
	assert.Equal(t, journey.ClosureReasonManual, j.ClosureReason)
	assert.False(t, j.AutoClosed)
	assert.Len(t, j.Events, 8)
	hoursEqual(t, 7.5, j.HoursWorked)
}

func TestApply_IntermediateStatuses(t *testing.T) {
	cases := []struct {
		event journey.EventKind
		want  journey.Status
	}{
		{journey.EventMorningBreakStart, journey.StatusOnMorningBreak},
		{journey.EventLunchStart, journey.StatusOnLunch},
		{journey.EventAfternoonBreakStart, journey.StatusOnAfternoonBreak},
	}

	for _, tc := range cases {
		t.Run(string(tc.event), func(t *testing.T) {
			j := applyAll(t, newDay(t), ev(journey.EventEntry, at(8, 0)))
			j = applyAll(t, j, ev(tc.event, at(10, 0)))

			assert.Equal(t, tc.want, j.Status)
		})
	}
}

func TestApply_VersionBumpsOnEveryMutation(t *testing.T) {
	j := newDay(t)
	require.Equal(t, int64(1), j.Version)

	j = applyAll(t, j, ev(journey.EventEntry, at(8, 0)))
	assert.Equal(t, int64(2), j.Version)

	j = applyAll(t, j, ev(journey.EventLunchStart, at(12, 0)))
	assert.Equal(t, int64(3), j.Version)
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestApply_SecondEntryRejected(t *testing.T) {
	j := applyAll(t, newDay(t), ev(journey.EventEntry, at(8, 0)))

	_, err := journey.Apply(j, ev(journey.EventEntry, at(9, 0)), threshold)

	assert.ErrorIs(t, err, journey.ErrInvalidTransition)
	var transErr *journey.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, journey.StatusInProgress, transErr.From)
	assert.Equal(t, journey.EventEntry, transErr.Event)
}

func TestApply_ExitWithOpenBreakRejected(t *testing.T) {
	// GIVEN: Entry 08:00, morning break started 10:00 and never ended
	// WHEN: Attempting exit at 10:30
	// THEN: Rejected as an invalid transition; journey still on break

	j := applyAll(t, newDay(t),
		ev(journey.EventEntry, at(8, 0)),
		ev(journey.EventMorningBreakStart, at(10, 0)),
	)

	rejected, err := journey.Apply(j, ev(journey.EventExit, at(10, 30)), threshold)

	assert.ErrorIs(t, err, journey.ErrInvalidTransition)
	assert.Equal(t, journey.StatusOnMorningBreak, rejected.Status)
	assert.Len(t, rejected.Events, 2, "no partial mutation on rejection")
	assert.Equal(t, j.Version, rejected.Version)
}

func TestApply_BreakEndWithoutStartRejected(t *testing.T) {
	j := applyAll(t, newDay(t), ev(journey.EventEntry, at(8, 0)))

	_, err := journey.Apply(j, ev(journey.EventLunchEnd, at(13, 0)), threshold)

	assert.ErrorIs(t, err, journey.ErrInvalidTransition)
}

func TestApply_MismatchedBreakEndRejected(t *testing.T) {
	// A lunch end cannot close a morning break
	j := applyAll(t, newDay(t),
		ev(journey.EventEntry, at(8, 0)),
		ev(journey.EventMorningBreakStart, at(10, 0)),
	)

	_, err := journey.Apply(j, ev(journey.EventLunchEnd, at(10, 30)), threshold)

	assert.ErrorIs(t, err, journey.ErrInvalidTransition)
}

func TestApply_TerminalJourneyRejectsEverything(t *testing.T) {
	j := applyAll(t, newDay(t),
		ev(journey.EventEntry, at(8, 0)),
		ev(journey.EventExit, at(17, 0)),
	)
	require.Equal(t, journey.StatusCompleted, j.Status)

	for _, kind := range []journey.EventKind{
		journey.EventEntry, journey.EventLunchStart, journey.EventExit, journey.EventForcedExit,
	} {
		_, err := journey.Apply(j, ev(kind, at(18, 0)), threshold)
		assert.ErrorIs(t, err, journey.ErrAlreadyTerminal, "kind %s", kind)
	}
}

func TestApply_OutOfOrderTimestampRejected(t *testing.T) {
	j := applyAll(t, newDay(t), ev(journey.EventEntry, at(8, 0)))

	_, err := journey.Apply(j, ev(journey.EventLunchStart, at(7, 0)), threshold)

	assert.ErrorIs(t, err, journey.ErrEventOutOfOrder)
	var orderErr *journey.OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, at(8, 0), orderErr.LastSeen)
}

func TestApply_UnvalidatedLocationRejected(t *testing.T) {
	// Human-issued events must carry a validated location
	j := newDay(t)

	_, err := journey.Apply(j, journey.JourneyEvent{
		Kind:      journey.EventEntry,
		Timestamp: at(8, 0),
	}, threshold)

	assert.ErrorIs(t, err, journey.ErrLocationRejected)
}

func TestApply_UnknownKindRejected(t *testing.T) {
	_, err := journey.Apply(newDay(t), journey.JourneyEvent{
		Kind:      journey.EventKind("nap_start"),
		Timestamp: at(8, 0),
	}, threshold)

	assert.ErrorIs(t, err, journey.ErrUnknownEventKind)
}

// =============================================================================
// FORCED EXIT
// =============================================================================

func TestApply_ForcedExitFromAnyNonTerminalState(t *testing.T) {
	// GIVEN: Journeys left in each non-terminal working state
	// WHEN: The scheduler issues a ForcedExit
	// THEN: All close as AutoClosed

	setups := map[string][]journey.JourneyEvent{
		"in_progress": {ev(journey.EventEntry, at(8, 0))},
		"on_morning_break": {
			ev(journey.EventEntry, at(8, 0)),
			ev(journey.EventMorningBreakStart, at(10, 0)),
		},
		"on_lunch": {
			ev(journey.EventEntry, at(8, 0)),
			ev(journey.EventLunchStart, at(12, 0)),
		},
	}

	for name, events := range setups {
		t.Run(name, func(t *testing.T) {
			j := applyAll(t, newDay(t), events...)

			closed, err := journey.Apply(j, journey.JourneyEvent{
				Kind:      journey.EventForcedExit,
				Timestamp: at(16, 0),
			}, threshold)

			require.NoError(t, err)
			assert.Equal(t, journey.StatusAutoClosed, closed.Status)
			assert.True(t, closed.AutoClosed)
			assert.Equal(t, journey.ClosureReasonAutoClose, closed.ClosureReason)
		})
	}
}

func TestApply_ForcedExitNeedsNoLocation(t *testing.T) {
	j := applyAll(t, newDay(t), ev(journey.EventEntry, at(8, 0)))

	closed, err := journey.Apply(j, journey.JourneyEvent{
		Kind:      journey.EventForcedExit,
		Timestamp: at(16, 0),
	}, threshold)

	require.NoError(t, err)
	hoursEqual(t, 8.0, closed.HoursWorked)
}

// =============================================================================
// DERIVED STATUS
// =============================================================================

func TestDeriveStatus_MatchesAppliedStatus(t *testing.T) {
	// Invariant: status is a deterministic function of events
	j := applyAll(t, newDay(t),
		ev(journey.EventEntry, at(8, 0)),
		ev(journey.EventLunchStart, at(12, 0)),
		ev(journey.EventLunchEnd, at(13, 0)),
		ev(journey.EventExit, at(17, 0)),
	)

	assert.Equal(t, j.Status, journey.DeriveStatus(j.Events))
}

func TestDeriveStatus_EmptyIsNotStarted(t *testing.T) {
	assert.Equal(t, journey.StatusNotStarted, journey.DeriveStatus(nil))
}

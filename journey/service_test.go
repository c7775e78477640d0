package journey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorodrig/journey-engine/journey"
	"github.com/dorodrig/journey-engine/journey/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*journey.Service, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	dir := store.NewMemoryDirectory()
	dir.Put(journey.Employee{
		ID:          "emp-1",
		Name:        "Maria Torres",
		Email:       "maria@example.com",
		ZoneCenter:  zoneCenter,
		ZoneRadiusM: 10,
	})

	return journey.NewService(mem, dir, 10, threshold), mem
}

// =============================================================================
// LIVE EVENT PATH
// =============================================================================

func TestSubmitEvent_EntryInsideZone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	j, err := svc.SubmitEvent(ctx, "emp-1", journey.EventEntry, at(8, 0), zoneCenter)

	require.NoError(t, err)
	assert.Equal(t, journey.StatusInProgress, j.Status)
	require.Len(t, j.Events, 1)
	assert.True(t, j.Events[0].ValidLocation)
}

func TestSubmitEvent_OutsideZoneRejected(t *testing.T) {
	// GIVEN: A 10m-tolerance zone
	// WHEN: Submitting an Entry from 50m away
	// THEN: LocationRejected; no event appended; journey remains NotStarted

	svc, mem := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitEvent(ctx, "emp-1", journey.EventEntry, at(8, 0), offsetMeters(zoneCenter, 50))

	assert.ErrorIs(t, err, journey.ErrLocationRejected)
	var locErr *journey.LocationRejectedError
	require.ErrorAs(t, err, &locErr)
	assert.InDelta(t, 50.0, locErr.DistanceMeters, 1.0)
	assert.Equal(t, 10.0, locErr.ToleranceMeters)

	// The rejection must not have created or touched the day's journey
	_, err = mem.Get(ctx, "emp-1", at(8, 0))
	assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
}

func TestSubmitEvent_InvalidCoordinateBlocked(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitEvent(context.Background(), "emp-1", journey.EventEntry, at(8, 0),
		journey.Coordinate{Lat: 95, Lng: 0})

	assert.ErrorIs(t, err, journey.ErrInvalidCoordinate)
}

func TestSubmitEvent_UnknownEmployee(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitEvent(context.Background(), "emp-404", journey.EventEntry, at(8, 0), zoneCenter)

	assert.ErrorIs(t, err, journey.ErrEmployeeNotFound)
}

func TestSubmitEvent_FullDayPersisted(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	steps := []struct {
		kind journey.EventKind
		h, m int
	}{
		{journey.EventEntry, 8, 0},
		{journey.EventLunchStart, 12, 0},
		{journey.EventLunchEnd, 13, 0},
		{journey.EventExit, 17, 0},
	}

	for _, s := range steps {
		_, err := svc.SubmitEvent(ctx, "emp-1", s.kind, at(s.h, s.m), zoneCenter)
		require.NoError(t, err, "submitting %s", s.kind)
	}

	j, err := mem.Get(ctx, "emp-1", at(8, 0))
	require.NoError(t, err)
	assert.Equal(t, journey.StatusCompleted, j.Status)
	hoursEqual(t, 8.0, j.HoursWorked)
	assert.Equal(t, int64(5), j.Version)
}

func TestSubmitEvent_RejectionReturnsCurrentState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitEvent(ctx, "emp-1", journey.EventEntry, at(8, 0), zoneCenter)
	require.NoError(t, err)

	j, err := svc.SubmitEvent(ctx, "emp-1", journey.EventLunchEnd, at(9, 0), zoneCenter)

	assert.ErrorIs(t, err, journey.ErrInvalidTransition)
	assert.Equal(t, journey.StatusInProgress, j.Status, "caller sees where the day actually is")
}

func TestSubmitEvent_ZoneRadiusFallsBackToTolerance(t *testing.T) {
	// Directory record without an explicit radius uses the configured default
	mem := store.NewMemory()
	dir := store.NewMemoryDirectory()
	dir.Put(journey.Employee{ID: "emp-2", Name: "Luis Prada", ZoneCenter: zoneCenter})

	svc := journey.NewService(mem, dir, 100, threshold)

	j, err := svc.SubmitEvent(context.Background(), "emp-2", journey.EventEntry, at(8, 0),
		offsetMeters(zoneCenter, 50))

	require.NoError(t, err)
	assert.Equal(t, journey.StatusInProgress, j.Status)
}

func TestSubmitEvent_AfterAutoCloseReportsTerminal(t *testing.T) {
	// GIVEN: The scheduler force-closed the journey between the client's
	//        read and its Exit submission
	// WHEN: The manual Exit arrives
	// THEN: ErrAlreadyTerminal with the closed journey, not a raw conflict

	svc, mem := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitEvent(ctx, "emp-1", journey.EventEntry, at(8, 0), zoneCenter)
	require.NoError(t, err)

	// Scheduler wins the race
	j, err := mem.Get(ctx, "emp-1", at(8, 0))
	require.NoError(t, err)
	closed, err := journey.Apply(j, journey.JourneyEvent{
		Kind:      journey.EventForcedExit,
		Timestamp: at(16, 0),
	}, threshold)
	require.NoError(t, err)
	require.NoError(t, mem.CompareAndSwap(ctx, closed))

	got, err := svc.SubmitEvent(ctx, "emp-1", journey.EventExit, at(17, 0), zoneCenter)

	assert.ErrorIs(t, err, journey.ErrAlreadyTerminal)
	assert.Equal(t, journey.StatusAutoClosed, got.Status)
	assert.True(t, got.AutoClosed)
}

// Package store provides Store and Directory implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dorodrig/journey-engine/journey"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	journeys map[dayKey]journey.Journey
}

type dayKey struct {
	EmployeeID string
	Date       string
}

func NewMemory() *Memory {
	return &Memory{journeys: make(map[dayKey]journey.Journey)}
}

func keyFor(employeeID string, date time.Time) dayKey {
	return dayKey{EmployeeID: employeeID, Date: journey.DateKey(date)}
}

// GetOrCreate returns the day's journey, creating it under the lock so that
// concurrent callers observe exactly one journey per (employee, date).
func (m *Memory) GetOrCreate(_ context.Context, employeeID string, date time.Time) (journey.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyFor(employeeID, date)
	if j, ok := m.journeys[k]; ok {
		return j.Clone(), nil
	}

	j := journey.New(employeeID, date)
	m.journeys[k] = j
	return j.Clone(), nil
}

func (m *Memory) Get(_ context.Context, employeeID string, date time.Time) (journey.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.journeys[keyFor(employeeID, date)]
	if !ok {
		return journey.Journey{}, journey.ErrJourneyNotFound
	}
	return j.Clone(), nil
}

// CompareAndSwap replaces the stored journey iff its version is exactly one
// behind the update. The check and the write happen under one lock, which is
// the in-memory equivalent of the sqlite versioned UPDATE.
func (m *Memory) CompareAndSwap(_ context.Context, updated journey.Journey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyFor(updated.EmployeeID, updated.Date)
	current, ok := m.journeys[k]
	if !ok {
		return journey.ErrJourneyNotFound
	}
	if current.Version != updated.Version-1 {
		return journey.ErrVersionConflict
	}

	m.journeys[k] = updated.Clone()
	return nil
}

func (m *Memory) ListOpenSince(_ context.Context, before time.Time) ([]journey.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var open []journey.Journey
	for _, j := range m.journeys {
		if j.Status.IsTerminal() {
			continue
		}
		entry, ok := j.EntryTime()
		if !ok || entry.After(before) {
			continue
		}
		open = append(open, j.Clone())
	}
	return open, nil
}

// =============================================================================
// MEMORY DIRECTORY
// =============================================================================

// MemoryDirectory is a map-backed employee directory for tests and dev.
type MemoryDirectory struct {
	mu        sync.RWMutex
	employees map[string]journey.Employee
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{employees: make(map[string]journey.Employee)}
}

func (d *MemoryDirectory) Put(emp journey.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[emp.ID] = emp
}

func (d *MemoryDirectory) GetEmployee(_ context.Context, id string) (journey.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	emp, ok := d.employees[id]
	if !ok {
		return journey.Employee{}, journey.ErrEmployeeNotFound
	}
	return emp, nil
}

func (d *MemoryDirectory) SaveEmployee(_ context.Context, emp journey.Employee) error {
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now().UTC()
	}
	d.Put(emp)
	return nil
}

func (d *MemoryDirectory) ListEmployees(_ context.Context) ([]journey.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	employees := make([]journey.Employee, 0, len(d.employees))
	for _, emp := range d.employees {
		employees = append(employees, emp)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })
	return employees, nil
}

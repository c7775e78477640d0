/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements journey.Store and journey.Directory using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  journeys:       One row per (employee, calendar date) with version counter
  journey_events: Append-only ordered event sequence per journey
  employees:      Directory records with authorized zone center + radius

COMPARE-AND-SWAP:
  All journey mutations run as

    UPDATE journeys SET ... WHERE id = ? AND version = ?

  inside a transaction. Zero rows affected means a concurrent writer won and
  the caller gets journey.ErrVersionConflict. Events are written append-only:
  only the tail past the already-persisted sequence is inserted.

UNIQUENESS:
  UNIQUE(employee_id, date) enforces "at most one journey per employee per
  calendar day" at the database level; GetOrCreate races resolve to the same
  row via INSERT OR IGNORE.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/journeys.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - journey/store.go: Interface definitions
  - journey/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/dorodrig/journey-engine/journey"
)

// Store implements journey.Store and journey.Directory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Journeys (one per employee per calendar date)
	CREATE TABLE IF NOT EXISTS journeys (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		hours_worked TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		auto_closed BOOLEAN NOT NULL DEFAULT FALSE,
		closure_reason TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_journeys_status
		ON journeys(status);
	CREATE INDEX IF NOT EXISTS idx_journeys_employee_date
		ON journeys(employee_id, date);

	-- Journey events (append-only ordered sequence)
	CREATE TABLE IF NOT EXISTS journey_events (
		journey_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		ts TEXT NOT NULL,
		lat REAL NOT NULL DEFAULT 0,
		lng REAL NOT NULL DEFAULT 0,
		location_valid BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (journey_id, seq),
		FOREIGN KEY (journey_id) REFERENCES journeys(id)
	);

	CREATE INDEX IF NOT EXISTS idx_journey_events_kind
		ON journey_events(journey_id, kind);

	-- Employees (directory with authorized zone)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		zone_lat REAL NOT NULL DEFAULT 0,
		zone_lng REAL NOT NULL DEFAULT 0,
		zone_radius_m REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNEY STORE (journey.Store interface)
// =============================================================================

// GetOrCreate returns the journey for the employee on date, inserting an
// empty NotStarted journey when none exists. INSERT OR IGNORE plus the
// UNIQUE(employee_id, date) constraint makes concurrent creation converge on
// a single row.
func (s *Store) GetOrCreate(ctx context.Context, employeeID string, date time.Time) (journey.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := journey.New(employeeID, date)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO journeys
		(id, employee_id, date, status, hours_worked, overtime_hours, auto_closed, closure_reason, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(j.ID),
		j.EmployeeID,
		journey.DateKey(j.Date),
		string(j.Status),
		j.HoursWorked.String(),
		j.OvertimeHours.String(),
		j.AutoClosed,
		j.ClosureReason,
		j.Version,
		j.CreatedAt.Format(time.RFC3339Nano),
		j.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return journey.Journey{}, fmt.Errorf("failed to create journey: %w", err)
	}

	return s.getLocked(ctx, employeeID, date)
}

// Get returns the journey for the employee on date.
func (s *Store) Get(ctx context.Context, employeeID string, date time.Time) (journey.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getLocked(ctx, employeeID, date)
}

func (s *Store) getLocked(ctx context.Context, employeeID string, date time.Time) (journey.Journey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, date, status, hours_worked, overtime_hours,
		       auto_closed, closure_reason, version, created_at, updated_at
		FROM journeys
		WHERE employee_id = ? AND date = ?`,
		employeeID, journey.DateKey(date))

	j, err := scanJourney(row)
	if err == sql.ErrNoRows {
		return journey.Journey{}, journey.ErrJourneyNotFound
	}
	if err != nil {
		return journey.Journey{}, err
	}

	events, err := s.loadEvents(ctx, j.ID)
	if err != nil {
		return journey.Journey{}, err
	}
	j.Events = events

	return j, nil
}

// CompareAndSwap persists updated iff the stored version equals
// updated.Version-1. The version check and the event-tail insert run in one
// database transaction.
func (s *Store) CompareAndSwap(ctx context.Context, updated journey.Journey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE journeys
		SET status = ?, hours_worked = ?, overtime_hours = ?,
		    auto_closed = ?, closure_reason = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(updated.Status),
		updated.HoursWorked.String(),
		updated.OvertimeHours.String(),
		updated.AutoClosed,
		updated.ClosureReason,
		updated.Version,
		updated.UpdatedAt.Format(time.RFC3339Nano),
		string(updated.ID),
		updated.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to update journey: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM journeys WHERE id = ?", string(updated.ID),
		).Scan(&exists); err == nil && exists == 0 {
			return journey.ErrJourneyNotFound
		}
		return journey.ErrVersionConflict
	}

	// Events are append-only: persist only the tail past what is stored.
	var persisted int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM journey_events WHERE journey_id = ?", string(updated.ID),
	).Scan(&persisted); err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}

	for seq := persisted; seq < len(updated.Events); seq++ {
		ev := updated.Events[seq]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO journey_events (journey_id, seq, kind, ts, lat, lng, location_valid)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(updated.ID),
			seq,
			string(ev.Kind),
			ev.Timestamp.UTC().Format(time.RFC3339Nano),
			ev.Coordinate.Lat,
			ev.Coordinate.Lng,
			ev.ValidLocation,
		)
		if err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	return tx.Commit()
}

// ListOpenSince returns non-terminal journeys whose Entry event is at or
// before the given instant.
func (s *Store) ListOpenSince(ctx context.Context, before time.Time) ([]journey.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT j.id, j.employee_id, j.date, j.status, j.hours_worked, j.overtime_hours,
		       j.auto_closed, j.closure_reason, j.version, j.created_at, j.updated_at
		FROM journeys j
		JOIN journey_events e ON e.journey_id = j.id AND e.kind = ?
		WHERE j.status NOT IN (?, ?) AND e.ts <= ?
		ORDER BY e.ts ASC`,
		string(journey.EventEntry),
		string(journey.StatusCompleted),
		string(journey.StatusAutoClosed),
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open journeys: %w", err)
	}
	defer rows.Close()

	var candidates []journey.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range candidates {
		events, err := s.loadEvents(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		candidates[i].Events = events
	}

	return candidates, nil
}

func (s *Store) loadEvents(ctx context.Context, id journey.JourneyID) ([]journey.JourneyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, ts, lat, lng, location_valid
		FROM journey_events
		WHERE journey_id = ?
		ORDER BY seq ASC`,
		string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []journey.JourneyEvent
	for rows.Next() {
		var (
			ev   journey.JourneyEvent
			kind string
			ts   string
		)
		if err := rows.Scan(&kind, &ts, &ev.Coordinate.Lat, &ev.Coordinate.Lng, &ev.ValidLocation); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Kind = journey.EventKind(kind)
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		ev.Timestamp = t
		events = append(events, ev)
	}

	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJourney(row rowScanner) (journey.Journey, error) {
	var (
		j         journey.Journey
		id        string
		date      string
		status    string
		worked    string
		overtime  string
		createdAt string
		updatedAt string
	)

	err := row.Scan(&id, &j.EmployeeID, &date, &status, &worked, &overtime,
		&j.AutoClosed, &j.ClosureReason, &j.Version, &createdAt, &updatedAt)
	if err != nil {
		return j, err
	}

	j.ID = journey.JourneyID(id)
	j.Status = journey.Status(status)

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return j, fmt.Errorf("failed to parse journey date: %w", err)
	}
	j.Date = d

	j.HoursWorked, err = decimal.NewFromString(worked)
	if err != nil {
		return j, fmt.Errorf("failed to parse hours worked: %w", err)
	}
	j.OvertimeHours, err = decimal.NewFromString(overtime)
	if err != nil {
		return j, fmt.Errorf("failed to parse overtime hours: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		j.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		j.UpdatedAt = t
	}

	return j, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (journey.Directory interface)
// =============================================================================

// GetEmployee returns the directory record for id.
func (s *Store) GetEmployee(ctx context.Context, id string) (journey.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		emp       journey.Employee
		email     sql.NullString
		createdAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, zone_lat, zone_lng, zone_radius_m, created_at
		FROM employees WHERE id = ?`, id,
	).Scan(&emp.ID, &emp.Name, &email, &emp.ZoneCenter.Lat, &emp.ZoneCenter.Lng, &emp.ZoneRadiusM, &createdAt)
	if err == sql.ErrNoRows {
		return journey.Employee{}, journey.ErrEmployeeNotFound
	}
	if err != nil {
		return journey.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	emp.Email = email.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		emp.CreatedAt = t
	}

	return emp, nil
}

// SaveEmployee inserts or updates a directory record.
func (s *Store) SaveEmployee(ctx context.Context, emp journey.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, zone_lat, zone_lng, zone_radius_m, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			zone_lat = excluded.zone_lat,
			zone_lng = excluded.zone_lng,
			zone_radius_m = excluded.zone_radius_m`,
		emp.ID, emp.Name, nullString(emp.Email),
		emp.ZoneCenter.Lat, emp.ZoneCenter.Lng, emp.ZoneRadiusM,
		emp.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// ListEmployees returns all directory records ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]journey.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, zone_lat, zone_lng, zone_radius_m, created_at
		FROM employees ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []journey.Employee
	for rows.Next() {
		var (
			emp       journey.Employee
			email     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &email, &emp.ZoneCenter.Lat, &emp.ZoneCenter.Lng, &emp.ZoneRadiusM, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emp.Email = email.String
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			emp.CreatedAt = t
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

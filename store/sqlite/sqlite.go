/*
Package sqlite provides the SQLite-backed implementation of engine.TxStore.

PURPOSE:
  Persists persons, projects, allocations, and availability windows.
  The same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  persons:              External personnel identities (id + name)
  projects:             External project identities
  allocations:          Percentage-weighted person-to-project commitments
  availability_windows: Percentage caps on a person's usable capacity

CONCURRENCY:
  Admissions are check-then-act: the engine reads overlapping records,
  decides, then writes. WithTx holds the store's write mutex for the
  whole sequence, so two concurrent admissions for the same person can
  never both read a clean state. With PostgreSQL the same guarantee
  comes from a serializable transaction or per-person row locking.

WAL MODE:
  SQLite is opened with WAL so readers don't block behind the writer.

DATA ENCODING:
  Dates as ISO calendar dates (YYYY-MM-DD), percentages as decimal
  strings (no float drift), timestamps as RFC3339.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/interval"
)

// Store implements engine.TxStore using SQLite.
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
	-- External personnel identities (full lifecycle owned elsewhere)
	CREATE TABLE IF NOT EXISTS persons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	-- External project identities
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Percentage-weighted commitments of a person to a project
	CREATE TABLE IF NOT EXISTS allocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id),
		person_id INTEGER NOT NULL REFERENCES persons(id),
		percentage TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		role TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: overlap queries per person
	CREATE INDEX IF NOT EXISTS idx_allocations_person_range
		ON allocations(person_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_allocations_project
		ON allocations(project_id);

	-- Percentage caps on a person's usable capacity
	CREATE TABLE IF NOT EXISTS availability_windows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id INTEGER NOT NULL REFERENCES persons(id),
		percentage TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_windows_person_range
		ON availability_windows(person_id, start_date, end_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS (engine.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction while holding the
// write mutex, serializing every admission's read-decide-write sequence.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txView{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// txView exposes engine.Store on top of an open transaction. The outer
// store's mutex is already held, so no locking here.
type txView struct {
	q querier
}

func (v *txView) GetPerson(ctx context.Context, id engine.PersonID) (*engine.Person, error) {
	return getPerson(ctx, v.q, id)
}
func (v *txView) GetProject(ctx context.Context, id engine.ProjectID) (*engine.Project, error) {
	return getProject(ctx, v.q, id)
}
func (v *txView) ListPersons(ctx context.Context) ([]engine.Person, error) {
	return listPersons(ctx, v.q)
}
func (v *txView) ListProjects(ctx context.Context) ([]engine.Project, error) {
	return listProjects(ctx, v.q)
}
func (v *txView) InsertPerson(ctx context.Context, p *engine.Person) error {
	return insertPerson(ctx, v.q, p)
}
func (v *txView) InsertProject(ctx context.Context, p *engine.Project) error {
	return insertProject(ctx, v.q, p)
}
func (v *txView) GetAllocation(ctx context.Context, id engine.AllocationID) (*engine.Allocation, error) {
	return getAllocation(ctx, v.q, id)
}
func (v *txView) AllocationsByPerson(ctx context.Context, personID engine.PersonID) ([]engine.Allocation, error) {
	return allocationsByPerson(ctx, v.q, personID)
}
func (v *txView) AllocationsByProject(ctx context.Context, projectID engine.ProjectID) ([]engine.Allocation, error) {
	return allocationsByProject(ctx, v.q, projectID)
}
func (v *txView) AllocationsInRange(ctx context.Context, personID engine.PersonID, period interval.Period, exclude engine.AllocationID) ([]engine.Allocation, error) {
	return allocationsInRange(ctx, v.q, personID, period, exclude)
}
func (v *txView) InsertAllocation(ctx context.Context, a *engine.Allocation) error {
	return insertAllocation(ctx, v.q, a)
}
func (v *txView) UpdateAllocation(ctx context.Context, a engine.Allocation) error {
	return updateAllocation(ctx, v.q, a)
}
func (v *txView) DeleteAllocation(ctx context.Context, id engine.AllocationID) error {
	return deleteAllocation(ctx, v.q, id)
}
func (v *txView) GetWindow(ctx context.Context, id engine.WindowID) (*engine.AvailabilityWindow, error) {
	return getWindow(ctx, v.q, id)
}
func (v *txView) WindowsByPerson(ctx context.Context, personID engine.PersonID) ([]engine.AvailabilityWindow, error) {
	return windowsByPerson(ctx, v.q, personID)
}
func (v *txView) WindowsInRange(ctx context.Context, personID engine.PersonID, period interval.Period, exclude engine.WindowID) ([]engine.AvailabilityWindow, error) {
	return windowsInRange(ctx, v.q, personID, period, exclude)
}
func (v *txView) InsertWindow(ctx context.Context, w *engine.AvailabilityWindow) error {
	return insertWindow(ctx, v.q, w)
}
func (v *txView) UpdateWindow(ctx context.Context, w engine.AvailabilityWindow) error {
	return updateWindow(ctx, v.q, w)
}
func (v *txView) DeleteWindow(ctx context.Context, id engine.WindowID) error {
	return deleteWindow(ctx, v.q, id)
}

// =============================================================================
// PERSONS / PROJECTS
// =============================================================================

func (s *Store) GetPerson(ctx context.Context, id engine.PersonID) (*engine.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPerson(ctx, s.db, id)
}

func getPerson(ctx context.Context, q querier, id engine.PersonID) (*engine.Person, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at FROM persons WHERE id = ?`, id)

	var p engine.Person
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) GetProject(ctx context.Context, id engine.ProjectID) (*engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProject(ctx, s.db, id)
}

func getProject(ctx context.Context, q querier, id engine.ProjectID) (*engine.Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE id = ?`, id)

	var p engine.Project
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) ListPersons(ctx context.Context) ([]engine.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPersons(ctx, s.db)
}

func listPersons(ctx context.Context, q querier) ([]engine.Person, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at FROM persons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []engine.Person
	for rows.Next() {
		var p engine.Person
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProjects(ctx, s.db)
}

func listProjects(ctx context.Context, q querier) ([]engine.Project, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, created_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []engine.Project
	for rows.Next() {
		var p engine.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) InsertPerson(ctx context.Context, p *engine.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPerson(ctx, s.db, p)
}

func insertPerson(ctx context.Context, q querier, p *engine.Person) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO persons (name, email, created_at) VALUES (?, ?, ?)`,
		p.Name, p.Email, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = engine.PersonID(id)
	return nil
}

func (s *Store) InsertProject(ctx context.Context, p *engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertProject(ctx, s.db, p)
}

func insertProject(ctx context.Context, q querier, p *engine.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO projects (name, created_at) VALUES (?, ?)`,
		p.Name, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = engine.ProjectID(id)
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

const allocationColumns = `id, project_id, person_id, percentage, start_date, end_date, COALESCE(role, ''), created_at, updated_at`

func (s *Store) GetAllocation(ctx context.Context, id engine.AllocationID) (*engine.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAllocation(ctx, s.db, id)
}

func getAllocation(ctx context.Context, q querier, id engine.AllocationID) (*engine.Allocation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	defer rows.Close()

	allocations, err := scanAllocations(rows)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, nil
	}
	return &allocations[0], nil
}

func (s *Store) AllocationsByPerson(ctx context.Context, personID engine.PersonID) ([]engine.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allocationsByPerson(ctx, s.db, personID)
}

func allocationsByPerson(ctx context.Context, q querier, personID engine.PersonID) ([]engine.Allocation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE person_id = ? ORDER BY start_date, id`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (s *Store) AllocationsByProject(ctx context.Context, projectID engine.ProjectID) ([]engine.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allocationsByProject(ctx, s.db, projectID)
}

func allocationsByProject(ctx context.Context, q querier, projectID engine.ProjectID) ([]engine.Allocation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE project_id = ? ORDER BY start_date, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (s *Store) AllocationsInRange(ctx context.Context, personID engine.PersonID, period interval.Period, exclude engine.AllocationID) ([]engine.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allocationsInRange(ctx, s.db, personID, period, exclude)
}

func allocationsInRange(ctx context.Context, q querier, personID engine.PersonID, period interval.Period, exclude engine.AllocationID) ([]engine.Allocation, error) {
	// Inclusive-date overlap: start <= query end AND end >= query start.
	rows, err := q.QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations
		 WHERE person_id = ? AND id != ? AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date, id`,
		personID, exclude, period.End.String(), period.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (s *Store) InsertAllocation(ctx context.Context, a *engine.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertAllocation(ctx, s.db, a)
}

func insertAllocation(ctx context.Context, q querier, a *engine.Allocation) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO allocations (project_id, person_id, percentage, start_date, end_date, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ProjectID, a.PersonID, a.Percentage.String(),
		a.Period.Start.String(), a.Period.End.String(), a.Role,
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = engine.AllocationID(id)
	return nil
}

func (s *Store) UpdateAllocation(ctx context.Context, a engine.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAllocation(ctx, s.db, a)
}

func updateAllocation(ctx context.Context, q querier, a engine.Allocation) error {
	res, err := q.ExecContext(ctx,
		`UPDATE allocations SET percentage = ?, start_date = ?, end_date = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		a.Percentage.String(), a.Period.Start.String(), a.Period.End.String(), a.Role,
		a.UpdatedAt.UTC().Format(time.RFC3339), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrAllocationNotFound
	}
	return nil
}

func (s *Store) DeleteAllocation(ctx context.Context, id engine.AllocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAllocation(ctx, s.db, id)
}

func deleteAllocation(ctx context.Context, q querier, id engine.AllocationID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrAllocationNotFound
	}
	return nil
}

func scanAllocations(rows *sql.Rows) ([]engine.Allocation, error) {
	var allocations []engine.Allocation
	for rows.Next() {
		var a engine.Allocation
		var percentage, startDate, endDate, createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.PersonID, &percentage,
			&startDate, &endDate, &a.Role, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		var err error
		if a.Percentage, err = decimal.NewFromString(percentage); err != nil {
			return nil, fmt.Errorf("corrupt percentage %q: %w", percentage, err)
		}
		if a.Period.Start, err = interval.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("corrupt start_date %q: %w", startDate, err)
		}
		if a.Period.End, err = interval.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("corrupt end_date %q: %w", endDate, err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// =============================================================================
// AVAILABILITY WINDOWS
// =============================================================================

const windowColumns = `id, person_id, percentage, start_date, end_date, COALESCE(notes, ''), created_at`

func (s *Store) GetWindow(ctx context.Context, id engine.WindowID) (*engine.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getWindow(ctx, s.db, id)
}

func getWindow(ctx context.Context, q querier, id engine.WindowID) (*engine.AvailabilityWindow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+windowColumns+` FROM availability_windows WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get availability window: %w", err)
	}
	defer rows.Close()

	windows, err := scanWindows(rows)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}
	return &windows[0], nil
}

func (s *Store) WindowsByPerson(ctx context.Context, personID engine.PersonID) ([]engine.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return windowsByPerson(ctx, s.db, personID)
}

func windowsByPerson(ctx context.Context, q querier, personID engine.PersonID) ([]engine.AvailabilityWindow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+windowColumns+` FROM availability_windows WHERE person_id = ? ORDER BY start_date, id`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability windows: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

func (s *Store) WindowsInRange(ctx context.Context, personID engine.PersonID, period interval.Period, exclude engine.WindowID) ([]engine.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return windowsInRange(ctx, s.db, personID, period, exclude)
}

func windowsInRange(ctx context.Context, q querier, personID engine.PersonID, period interval.Period, exclude engine.WindowID) ([]engine.AvailabilityWindow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+windowColumns+` FROM availability_windows
		 WHERE person_id = ? AND id != ? AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date, id`,
		personID, exclude, period.End.String(), period.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query availability windows: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

func (s *Store) InsertWindow(ctx context.Context, w *engine.AvailabilityWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertWindow(ctx, s.db, w)
}

func insertWindow(ctx context.Context, q querier, w *engine.AvailabilityWindow) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO availability_windows (person_id, percentage, start_date, end_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.PersonID, w.Percentage.String(),
		w.Period.Start.String(), w.Period.End.String(), w.Notes,
		w.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert availability window: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = engine.WindowID(id)
	return nil
}

func (s *Store) UpdateWindow(ctx context.Context, w engine.AvailabilityWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateWindow(ctx, s.db, w)
}

func updateWindow(ctx context.Context, q querier, w engine.AvailabilityWindow) error {
	res, err := q.ExecContext(ctx,
		`UPDATE availability_windows SET percentage = ?, start_date = ?, end_date = ?, notes = ?
		 WHERE id = ?`,
		w.Percentage.String(), w.Period.Start.String(), w.Period.End.String(), w.Notes, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update availability window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrWindowNotFound
	}
	return nil
}

func (s *Store) DeleteWindow(ctx context.Context, id engine.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWindow(ctx, s.db, id)
}

func deleteWindow(ctx context.Context, q querier, id engine.WindowID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrWindowNotFound
	}
	return nil
}

func scanWindows(rows *sql.Rows) ([]engine.AvailabilityWindow, error) {
	var windows []engine.AvailabilityWindow
	for rows.Next() {
		var w engine.AvailabilityWindow
		var percentage, startDate, endDate, createdAt string
		if err := rows.Scan(&w.ID, &w.PersonID, &percentage,
			&startDate, &endDate, &w.Notes, &createdAt); err != nil {
			return nil, err
		}

		var err error
		if w.Percentage, err = decimal.NewFromString(percentage); err != nil {
			return nil, fmt.Errorf("corrupt percentage %q: %w", percentage, err)
		}
		if w.Period.Start, err = interval.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("corrupt start_date %q: %w", startDate, err)
		}
		if w.Period.End, err = interval.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("corrupt end_date %q: %w", endDate, err)
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

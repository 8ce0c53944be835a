/*
store.go - Data-access interface consumed by the engine

PURPOSE:
  The engine never touches a database directly. It consumes this
  capability record, passed in at construction time, so production code
  runs against SQLite and tests run against the in-memory store.

READ-THEN-DECIDE-THEN-WRITE:
  Every admission is a single synchronous transaction: read the person's
  overlapping records, compute a verdict, and only on accept perform one
  insert or update. Two concurrent admissions for the same person are a
  classic check-then-act race; the engine runs the whole pipeline inside
  TxStore.WithTx and requires implementations to serialize writes (row
  locking, a write mutex, or an immediate transaction).

MISSING RECORDS:
  Get* methods return (nil, nil) when the record does not exist. The
  engine translates that into the typed not-found errors; stores never
  invent their own.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite store
  - engine/store/memory.go: in-memory store for tests

SEE ALSO:
  - feasibility.go: The only writer
  - reporting.go: Read-only consumer
*/
package engine

import (
	"context"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// STORE - Persistence capability consumed by the engine
// =============================================================================

type Store interface {
	// Persons / projects (external collaborators, identity only).
	GetPerson(ctx context.Context, id PersonID) (*Person, error)
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	ListPersons(ctx context.Context) ([]Person, error)
	ListProjects(ctx context.Context) ([]Project, error)
	InsertPerson(ctx context.Context, p *Person) error
	InsertProject(ctx context.Context, p *Project) error

	// Allocations.
	GetAllocation(ctx context.Context, id AllocationID) (*Allocation, error)
	AllocationsByPerson(ctx context.Context, personID PersonID) ([]Allocation, error)
	AllocationsByProject(ctx context.Context, projectID ProjectID) ([]Allocation, error)

	// AllocationsInRange returns the person's allocations whose range
	// intersects the period, ordered by start date. exclude skips one
	// record for update-in-place checks; 0 excludes nothing.
	AllocationsInRange(ctx context.Context, personID PersonID, period interval.Period, exclude AllocationID) ([]Allocation, error)

	InsertAllocation(ctx context.Context, a *Allocation) error
	UpdateAllocation(ctx context.Context, a Allocation) error
	DeleteAllocation(ctx context.Context, id AllocationID) error

	// Availability windows.
	GetWindow(ctx context.Context, id WindowID) (*AvailabilityWindow, error)
	WindowsByPerson(ctx context.Context, personID PersonID) ([]AvailabilityWindow, error)

	// WindowsInRange returns the person's windows whose range intersects
	// the period, ordered by start date. exclude skips one record.
	WindowsInRange(ctx context.Context, personID PersonID, period interval.Period, exclude WindowID) ([]AvailabilityWindow, error)

	InsertWindow(ctx context.Context, w *AvailabilityWindow) error
	UpdateWindow(ctx context.Context, w AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id WindowID) error
}

// TxStore wraps Store with transaction support. WithTx must serialize
// concurrent admissions for the same person: if fn returns an error the
// transaction is rolled back, otherwise committed.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}

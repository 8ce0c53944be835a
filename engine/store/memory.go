// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	persons  map[engine.PersonID]engine.Person
	projects map[engine.ProjectID]engine.Project

	allocations map[engine.AllocationID]engine.Allocation
	windows     map[engine.WindowID]engine.AvailabilityWindow

	nextPerson     engine.PersonID
	nextProject    engine.ProjectID
	nextAllocation engine.AllocationID
	nextWindow     engine.WindowID
}

func NewMemory() *Memory {
	return &Memory{
		persons:        make(map[engine.PersonID]engine.Person),
		projects:       make(map[engine.ProjectID]engine.Project),
		allocations:    make(map[engine.AllocationID]engine.Allocation),
		windows:        make(map[engine.WindowID]engine.AvailabilityWindow),
		nextPerson:     1,
		nextProject:    1,
		nextAllocation: 1,
		nextWindow:     1,
	}
}

// =============================================================================
// PERSONS / PROJECTS
// =============================================================================

func (m *Memory) GetPerson(_ context.Context, id engine.PersonID) (*engine.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.persons[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) GetProject(_ context.Context, id engine.ProjectID) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListPersons(_ context.Context) ([]engine.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	persons := make([]engine.Person, 0, len(m.persons))
	for _, p := range m.persons {
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	return persons, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]engine.Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (m *Memory) InsertPerson(_ context.Context, p *engine.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextPerson
	m.nextPerson++
	m.persons[p.ID] = *p
	return nil
}

func (m *Memory) InsertProject(_ context.Context, p *engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextProject
	m.nextProject++
	m.projects[p.ID] = *p
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (m *Memory) GetAllocation(_ context.Context, id engine.AllocationID) (*engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.allocations[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) AllocationsByPerson(_ context.Context, personID engine.PersonID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Allocation
	for _, a := range m.allocations {
		if a.PersonID == personID {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) AllocationsByProject(_ context.Context, projectID engine.ProjectID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Allocation
	for _, a := range m.allocations {
		if a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) AllocationsInRange(_ context.Context, personID engine.PersonID, period interval.Period, exclude engine.AllocationID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Allocation
	for _, a := range m.allocations {
		if a.PersonID != personID || a.ID == exclude {
			continue
		}
		if a.Period.Overlaps(period) {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) InsertAllocation(_ context.Context, a *engine.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.nextAllocation
	m.nextAllocation++
	m.allocations[a.ID] = *a
	return nil
}

func (m *Memory) UpdateAllocation(_ context.Context, a engine.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.allocations[a.ID]; !ok {
		return engine.ErrAllocationNotFound
	}
	m.allocations[a.ID] = a
	return nil
}

func (m *Memory) DeleteAllocation(_ context.Context, id engine.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.allocations[id]; !ok {
		return engine.ErrAllocationNotFound
	}
	delete(m.allocations, id)
	return nil
}

func sortAllocations(allocations []engine.Allocation) {
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Period.Start.Equal(allocations[j].Period.Start) {
			return allocations[i].ID < allocations[j].ID
		}
		return allocations[i].Period.Start.Before(allocations[j].Period.Start)
	})
}

// =============================================================================
// AVAILABILITY WINDOWS
// =============================================================================

func (m *Memory) GetWindow(_ context.Context, id engine.WindowID) (*engine.AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.windows[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *Memory) WindowsByPerson(_ context.Context, personID engine.PersonID) ([]engine.AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.AvailabilityWindow
	for _, w := range m.windows {
		if w.PersonID == personID {
			result = append(result, w)
		}
	}
	sortWindows(result)
	return result, nil
}

func (m *Memory) WindowsInRange(_ context.Context, personID engine.PersonID, period interval.Period, exclude engine.WindowID) ([]engine.AvailabilityWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.AvailabilityWindow
	for _, w := range m.windows {
		if w.PersonID != personID || w.ID == exclude {
			continue
		}
		if w.Period.Overlaps(period) {
			result = append(result, w)
		}
	}
	sortWindows(result)
	return result, nil
}

func (m *Memory) InsertWindow(_ context.Context, w *engine.AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.ID = m.nextWindow
	m.nextWindow++
	m.windows[w.ID] = *w
	return nil
}

func (m *Memory) UpdateWindow(_ context.Context, w engine.AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.windows[w.ID]; !ok {
		return engine.ErrWindowNotFound
	}
	m.windows[w.ID] = w
	return nil
}

func (m *Memory) DeleteWindow(_ context.Context, id engine.WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.windows[id]; !ok {
		return engine.ErrWindowNotFound
	}
	delete(m.windows, id)
	return nil
}

func sortWindows(windows []engine.AvailabilityWindow) {
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Period.Start.Equal(windows[j].Period.Start) {
			return windows[i].ID < windows[j].ID
		}
		return windows[i].Period.Start.Before(windows[j].Period.Start)
	})
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support. Admissions run
// single-file: the whole read-decide-write sequence holds one lock, and
// a snapshot restores state when fn fails.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	persons     map[engine.PersonID]engine.Person
	projects    map[engine.ProjectID]engine.Project
	allocations map[engine.AllocationID]engine.Allocation
	windows     map[engine.WindowID]engine.AvailabilityWindow

	nextPerson     engine.PersonID
	nextProject    engine.ProjectID
	nextAllocation engine.AllocationID
	nextWindow     engine.WindowID
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		persons:        make(map[engine.PersonID]engine.Person, len(tm.persons)),
		projects:       make(map[engine.ProjectID]engine.Project, len(tm.projects)),
		allocations:    make(map[engine.AllocationID]engine.Allocation, len(tm.allocations)),
		windows:        make(map[engine.WindowID]engine.AvailabilityWindow, len(tm.windows)),
		nextPerson:     tm.nextPerson,
		nextProject:    tm.nextProject,
		nextAllocation: tm.nextAllocation,
		nextWindow:     tm.nextWindow,
	}
	for k, v := range tm.persons {
		s.persons[k] = v
	}
	for k, v := range tm.projects {
		s.projects[k] = v
	}
	for k, v := range tm.allocations {
		s.allocations[k] = v
	}
	for k, v := range tm.windows {
		s.windows[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.persons = s.persons
	tm.projects = s.projects
	tm.allocations = s.allocations
	tm.windows = s.windows
	tm.nextPerson = s.nextPerson
	tm.nextProject = s.nextProject
	tm.nextAllocation = s.nextAllocation
	tm.nextWindow = s.nextWindow
}

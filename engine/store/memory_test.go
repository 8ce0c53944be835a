package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
	"github.com/warp/staffing-engine/interval"
)

func TestTxMemory_RollbackRestoresSnapshot(t *testing.T) {
	// GIVEN: A store with one allocation
	// WHEN: A transaction inserts another and then fails
	// THEN: Only the original remains and id assignment rewinds

	mem := store.NewTxMemory()
	ctx := context.Background()

	person := engine.Person{Name: "Ada Lovelace"}
	require.NoError(t, mem.InsertPerson(ctx, &person))
	project := engine.Project{Name: "Analytical Engine"}
	require.NoError(t, mem.InsertProject(ctx, &project))

	a := engine.Allocation{
		ProjectID:  project.ID,
		PersonID:   person.ID,
		Percentage: decimal.NewFromInt(50),
		Period: interval.NewPeriod(
			interval.NewDate(2025, time.March, 1),
			interval.NewDate(2025, time.March, 31)),
	}
	require.NoError(t, mem.InsertAllocation(ctx, &a))

	sentinel := errors.New("rejected")
	err := mem.WithTx(ctx, func(s engine.Store) error {
		extra := a
		extra.ID = 0
		if err := s.InsertAllocation(ctx, &extra); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	allocations, err := mem.AllocationsByPerson(ctx, person.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, a.ID, allocations[0].ID)

	// The next real insert reuses the rolled-back id.
	b := a
	b.ID = 0
	require.NoError(t, mem.InsertAllocation(ctx, &b))
	assert.Equal(t, a.ID+1, b.ID)
}

func TestMemory_RangeQueriesSorted(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	person := engine.Person{Name: "Ada Lovelace"}
	require.NoError(t, mem.InsertPerson(ctx, &person))
	project := engine.Project{Name: "Analytical Engine"}
	require.NoError(t, mem.InsertProject(ctx, &project))

	later := engine.Allocation{
		ProjectID: project.ID, PersonID: person.ID,
		Percentage: decimal.NewFromInt(30),
		Period: interval.NewPeriod(
			interval.NewDate(2025, time.May, 1),
			interval.NewDate(2025, time.May, 31)),
	}
	require.NoError(t, mem.InsertAllocation(ctx, &later))

	earlier := engine.Allocation{
		ProjectID: project.ID, PersonID: person.ID,
		Percentage: decimal.NewFromInt(40),
		Period: interval.NewPeriod(
			interval.NewDate(2025, time.March, 1),
			interval.NewDate(2025, time.March, 31)),
	}
	require.NoError(t, mem.InsertAllocation(ctx, &earlier))

	all, err := mem.AllocationsByPerson(ctx, person.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, earlier.ID, all[0].ID, "results sorted by start date")
	assert.Equal(t, later.ID, all[1].ID)
}

package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// TEST HELPERS - Shared by the engine test files
// =============================================================================

func pct(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func pctPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func day(y int, m time.Month, d int) interval.Date {
	return interval.NewDate(y, m, d)
}

func span(sy int, sm time.Month, sd, ey int, em time.Month, ed int) interval.Period {
	return interval.NewPeriod(day(sy, sm, sd), day(ey, em, ed))
}

// newTestStore seeds one person and one project and returns their ids.
func newTestStore(t *testing.T) (*store.TxMemory, engine.PersonID, engine.ProjectID) {
	t.Helper()
	mem := store.NewTxMemory()
	ctx := context.Background()

	person := engine.Person{Name: "Ada Lovelace", Email: "ada@example.com"}
	require.NoError(t, mem.InsertPerson(ctx, &person))

	project := engine.Project{Name: "Analytical Engine"}
	require.NoError(t, mem.InsertProject(ctx, &project))

	return mem, person.ID, project.ID
}

func addWindow(t *testing.T, s engine.Store, personID engine.PersonID, percentage int64, period interval.Period) engine.AvailabilityWindow {
	t.Helper()
	w := engine.AvailabilityWindow{
		PersonID:   personID,
		Percentage: pct(percentage),
		Period:     period,
	}
	require.NoError(t, s.InsertWindow(context.Background(), &w))
	return w
}

func addAllocation(t *testing.T, s engine.Store, projectID engine.ProjectID, personID engine.PersonID, percentage int64, period interval.Period) engine.Allocation {
	t.Helper()
	a := engine.Allocation{
		ProjectID:  projectID,
		PersonID:   personID,
		Percentage: pct(percentage),
		Period:     period,
	}
	require.NoError(t, s.InsertAllocation(context.Background(), &a))
	return a
}

// =============================================================================
// EFFECTIVE AVAILABILITY
// =============================================================================

func TestEffective_NoWindows_FullyAvailable(t *testing.T) {
	// GIVEN: A person with no declared availability windows
	// WHEN: Computing effective availability over any range
	// THEN: 100% by default

	mem, personID, _ := newTestStore(t)
	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())

	got, err := ledger.Effective(context.Background(), personID, span(2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	assert.True(t, got.Percentage.Equal(pct(100)), "expected 100, got %s", got.Percentage)
	assert.Empty(t, got.Windows)
}

func TestEffective_SingleWindowCoveringRange(t *testing.T) {
	// GIVEN: One 50% window covering the whole query range
	// WHEN: Computing effective availability
	// THEN: 50%

	mem, personID, _ := newTestStore(t)
	addWindow(t, mem, personID, 50, span(2025, time.January, 1, 2025, time.December, 31))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	got, err := ledger.Effective(context.Background(), personID, span(2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	assert.True(t, got.Percentage.Equal(pct(50)), "expected 50, got %s", got.Percentage)
	assert.Len(t, got.Windows, 1)
}

func TestEffective_PartialCoverage_DilutesAverage(t *testing.T) {
	// GIVEN: An 80% window covering 5 of the 10 queried days
	// WHEN: Computing effective availability
	// THEN: (80*5)/10 = 40. Uncovered days count as zero in the average,
	//       not as the 100% default.

	mem, personID, _ := newTestStore(t)
	addWindow(t, mem, personID, 80, span(2025, time.June, 1, 2025, time.June, 5))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	got, err := ledger.Effective(context.Background(), personID, span(2025, time.June, 1, 2025, time.June, 10))
	require.NoError(t, err)

	assert.True(t, got.Percentage.Equal(pct(40)), "expected 40, got %s", got.Percentage)
}

func TestEffective_MultipleWindows_WeightedByDays(t *testing.T) {
	// GIVEN: 100% for the first 20 days, 50% for the last 10 of a 30-day query
	// WHEN: Computing effective availability
	// THEN: (100*20 + 50*10)/30 = 2500/30 = 83.33 -> 83

	mem, personID, _ := newTestStore(t)
	addWindow(t, mem, personID, 100, span(2025, time.June, 1, 2025, time.June, 20))
	addWindow(t, mem, personID, 50, span(2025, time.June, 21, 2025, time.June, 30))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	got, err := ledger.Effective(context.Background(), personID, span(2025, time.June, 1, 2025, time.June, 30))
	require.NoError(t, err)

	assert.True(t, got.Percentage.Equal(pct(83)), "expected 83, got %s", got.Percentage)
	assert.Len(t, got.Windows, 2)
}

func TestEffective_WindowOutsideRange_Ignored(t *testing.T) {
	// GIVEN: A 0% window entirely outside the query range
	// WHEN: Computing effective availability
	// THEN: Default 100%; the window never loads

	mem, personID, _ := newTestStore(t)
	addWindow(t, mem, personID, 0, span(2025, time.January, 1, 2025, time.January, 31))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	got, err := ledger.Effective(context.Background(), personID, span(2025, time.June, 1, 2025, time.June, 30))
	require.NoError(t, err)

	assert.True(t, got.Percentage.Equal(pct(100)), "expected 100, got %s", got.Percentage)
}

// =============================================================================
// CONFLICT DETAIL
// =============================================================================

func TestFindConflicts_WindowsBelowRequired(t *testing.T) {
	// GIVEN: Windows at 30% and 80% overlapping the range
	// WHEN: Finding conflicts against a required 50%
	// THEN: Only the 30% window is a conflict

	mem, personID, _ := newTestStore(t)
	low := addWindow(t, mem, personID, 30, span(2025, time.June, 1, 2025, time.June, 10))
	addWindow(t, mem, personID, 80, span(2025, time.June, 11, 2025, time.June, 30))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	conflicts, err := ledger.FindConflicts(context.Background(), personID, span(2025, time.June, 1, 2025, time.June, 30), pct(50))
	require.NoError(t, err)

	require.Len(t, conflicts, 1)
	assert.Equal(t, low.ID, conflicts[0].Window.ID)
	assert.Contains(t, conflicts[0].Message, "30")
}

// =============================================================================
// WINDOW OVERLAP INVARIANT
// =============================================================================

func TestCheckOverlap_RejectsIntersectingWindow(t *testing.T) {
	// GIVEN: An existing window in June
	// WHEN: Checking a new window that touches its last day
	// THEN: AvailabilityOverlapError naming the existing window

	mem, personID, _ := newTestStore(t)
	existing := addWindow(t, mem, personID, 50, span(2025, time.June, 1, 2025, time.June, 15))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	err := ledger.CheckOverlap(context.Background(), personID, span(2025, time.June, 15, 2025, time.June, 30), 0)

	var overlapErr *engine.AvailabilityOverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, existing.ID, overlapErr.Existing.ID)
	assert.ErrorIs(t, err, engine.ErrAvailabilityOverlap)
}

func TestCheckOverlap_ExcludeSkipsOwnRecord(t *testing.T) {
	// GIVEN: One window
	// WHEN: Checking its own range with itself excluded (update-in-place)
	// THEN: No overlap error

	mem, personID, _ := newTestStore(t)
	existing := addWindow(t, mem, personID, 50, span(2025, time.June, 1, 2025, time.June, 15))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	err := ledger.CheckOverlap(context.Background(), personID, existing.Period, existing.ID)
	assert.NoError(t, err)
}

func TestCheckOverlap_DisjointWindows_Allowed(t *testing.T) {
	mem, personID, _ := newTestStore(t)
	addWindow(t, mem, personID, 50, span(2025, time.June, 1, 2025, time.June, 15))

	ledger := engine.NewAvailabilityLedger(mem, engine.DefaultConfig())
	err := ledger.CheckOverlap(context.Background(), personID, span(2025, time.June, 16, 2025, time.June, 30), 0)
	assert.NoError(t, err)
}

package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
)

func newTestFeasibility(t *testing.T) (*engine.Feasibility, *store.TxMemory, engine.PersonID, engine.ProjectID) {
	t.Helper()
	mem, personID, projectID := newTestStore(t)
	return engine.NewFeasibility(mem, engine.DefaultConfig()), mem, personID, projectID
}

func proposal(projectID engine.ProjectID, personID engine.PersonID, percentage int64, sy int, sm time.Month, sd, ey int, em time.Month, ed int) engine.AllocationProposal {
	return engine.AllocationProposal{
		ProjectID:  projectID,
		PersonID:   personID,
		Percentage: pctPtr(percentage),
		Period:     span(sy, sm, sd, ey, em, ed),
	}
}

// =============================================================================
// ADMISSION - Happy path
// =============================================================================

func TestAdmit_ValidProposal_Persisted(t *testing.T) {
	// GIVEN: A valid 50% proposal for an existing person and project
	// WHEN: Admitting it
	// THEN: Accepted, persisted, id assigned, timestamps set

	f, mem, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	got, err := f.Admit(ctx, proposal(projectID, personID, 50, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.NotZero(t, got.ID)
	assert.True(t, got.Percentage.Equal(pct(50)))
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	stored, err := mem.GetAllocation(ctx, got.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Percentage.Equal(pct(50)))
}

func TestAdmit_OmittedPercentage_DefaultsToFullTime(t *testing.T) {
	// GIVEN: A proposal with no percentage
	// WHEN: Admitting it
	// THEN: Resolved to 100 before validation and checks

	f, _, personID, projectID := newTestFeasibility(t)

	got, err := f.Admit(context.Background(), engine.AllocationProposal{
		ProjectID: projectID,
		PersonID:  personID,
		Period:    span(2025, time.March, 1, 2025, time.March, 31),
	})
	require.NoError(t, err)
	assert.True(t, got.Percentage.Equal(pct(100)))
}

func TestAdmit_ZeroPercent_Valid(t *testing.T) {
	// Zero is a placeholder commitment, explicitly admissible.
	f, _, personID, projectID := newTestFeasibility(t)

	got, err := f.Admit(context.Background(), proposal(projectID, personID, 0, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)
	assert.True(t, got.Percentage.Equal(pct(0)))
}

// =============================================================================
// ADMISSION - Rejection pipeline
// =============================================================================

func TestAdmit_StructuralRejections(t *testing.T) {
	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		proposal engine.AllocationProposal
		field    string
	}{
		{
			"missing project",
			engine.AllocationProposal{PersonID: personID, Percentage: pctPtr(50), Period: span(2025, time.March, 1, 2025, time.March, 31)},
			"project_id",
		},
		{
			"missing person",
			engine.AllocationProposal{ProjectID: projectID, Percentage: pctPtr(50), Period: span(2025, time.March, 1, 2025, time.March, 31)},
			"person_id",
		},
		{
			"percentage over 100",
			proposal(projectID, personID, 150, 2025, time.March, 1, 2025, time.March, 31),
			"allocation_percentage",
		},
		{
			"negative percentage",
			proposal(projectID, personID, -10, 2025, time.March, 1, 2025, time.March, 31),
			"allocation_percentage",
		},
		{
			"end before start",
			proposal(projectID, personID, 50, 2025, time.March, 31, 2025, time.March, 1),
			"end_date",
		},
		{
			"single-day range",
			proposal(projectID, personID, 50, 2025, time.March, 1, 2025, time.March, 1),
			"end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Admit(ctx, tt.proposal)
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrInvalidInput)

			var verr *engine.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAdmit_StructuralBeatsReferential(t *testing.T) {
	// GIVEN: A proposal with both a bad percentage and a nonexistent project
	// WHEN: Admitting it
	// THEN: invalid_input; structural validation runs first

	f, _, personID, _ := newTestFeasibility(t)

	_, err := f.Admit(context.Background(), proposal(9999, personID, 150, 2025, time.March, 1, 2025, time.March, 31))
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestAdmit_UnknownProject_Rejected(t *testing.T) {
	f, _, personID, _ := newTestFeasibility(t)

	_, err := f.Admit(context.Background(), proposal(9999, personID, 50, 2025, time.March, 1, 2025, time.March, 31))
	assert.ErrorIs(t, err, engine.ErrProjectNotFound)
}

func TestAdmit_UnknownPerson_Rejected(t *testing.T) {
	f, _, _, projectID := newTestFeasibility(t)

	_, err := f.Admit(context.Background(), proposal(projectID, 9999, 50, 2025, time.March, 1, 2025, time.March, 31))
	assert.ErrorIs(t, err, engine.ErrPersonNotFound)
}

func TestAdmit_ProjectCheckedBeforePerson(t *testing.T) {
	// Both references missing: the project error wins.
	f, _, _, _ := newTestFeasibility(t)

	_, err := f.Admit(context.Background(), proposal(9999, 9999, 50, 2025, time.March, 1, 2025, time.March, 31))
	assert.ErrorIs(t, err, engine.ErrProjectNotFound)
}

func TestAdmit_DuplicateAssignment_Rejected(t *testing.T) {
	// GIVEN: Person already allocated to the project in an overlapping range
	// WHEN: Proposing a second small commitment to the same project
	// THEN: duplicate_assignment, even though capacity would allow it

	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	_, err := f.Admit(ctx, proposal(projectID, personID, 50, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	_, err = f.Admit(ctx, proposal(projectID, personID, 10, 2025, time.March, 15, 2025, time.April, 15))
	require.Error(t, err)

	var dupErr *engine.DuplicateAssignmentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, projectID, dupErr.ProjectID)
	assert.Equal(t, personID, dupErr.PersonID)
}

func TestAdmit_InsufficientAvailability_Rejected(t *testing.T) {
	// GIVEN: A person 50% available through all of 2025
	// WHEN: Proposing an 80% allocation
	// THEN: insufficient_availability with the average and conflicts

	f, mem, personID, projectID := newTestFeasibility(t)
	addWindow(t, mem, personID, 50, span(2025, time.January, 1, 2025, time.December, 31))

	_, err := f.Admit(context.Background(), proposal(projectID, personID, 80, 2025, time.March, 1, 2025, time.March, 31))
	require.Error(t, err)

	var availErr *engine.InsufficientAvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.True(t, availErr.Average.Equal(pct(50)))
	assert.True(t, availErr.Required.Equal(pct(80)))
	require.Len(t, availErr.Conflicts, 1)
}

func TestAdmit_DilutedAverage_StillAdmitsWithinIt(t *testing.T) {
	// GIVEN: An 80% window covering half the proposed range (average 40)
	// WHEN: Proposing exactly 40%
	// THEN: Accepted; the average is the admission bar

	f, mem, personID, projectID := newTestFeasibility(t)
	addWindow(t, mem, personID, 80, span(2025, time.June, 1, 2025, time.June, 5))

	_, err := f.Admit(context.Background(), proposal(projectID, personID, 40, 2025, time.June, 1, 2025, time.June, 10))
	assert.NoError(t, err)
}

func TestAdmit_CapacityExceeded_Rejected(t *testing.T) {
	// GIVEN: 60% committed to project A, January through March
	// WHEN: Proposing 50% on project B, February through April
	// THEN: capacity_exceeded with current 60, requested 50, resulting 110

	f, mem, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	other := engine.Project{Name: "Second Project"}
	require.NoError(t, mem.InsertProject(ctx, &other))

	_, err := f.Admit(ctx, proposal(projectID, personID, 60, 2025, time.January, 1, 2025, time.March, 31))
	require.NoError(t, err)

	_, err = f.Admit(ctx, proposal(other.ID, personID, 50, 2025, time.February, 1, 2025, time.April, 30))
	require.Error(t, err)

	var capErr *engine.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, capErr.CurrentTotal.Equal(pct(60)))
	assert.True(t, capErr.Requested.Equal(pct(50)))
	assert.True(t, capErr.ResultingTotal.Equal(pct(110)))
	assert.True(t, capErr.Ceiling.Equal(pct(100)))
}

func TestAdmit_RejectionLeavesNoRecord(t *testing.T) {
	// A rejected proposal must not leave partial state behind.
	f, mem, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	_, err := f.Admit(ctx, proposal(projectID, personID, 150, 2025, time.March, 1, 2025, time.March, 31))
	require.Error(t, err)

	allocations, err := mem.AllocationsByPerson(ctx, personID)
	require.NoError(t, err)
	assert.Empty(t, allocations)
}

// =============================================================================
// UPDATES - Merge then re-validate
// =============================================================================

func TestAdmitUpdate_PatchMergesOverExisting(t *testing.T) {
	// GIVEN: A 50% March allocation
	// WHEN: Patching only the percentage to 80
	// THEN: Dates and role survive, percentage changes, UpdatedAt moves

	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	created, err := f.Admit(ctx, engine.AllocationProposal{
		ProjectID:  projectID,
		PersonID:   personID,
		Percentage: pctPtr(50),
		Period:     span(2025, time.March, 1, 2025, time.March, 31),
		Role:       "Engineer",
	})
	require.NoError(t, err)

	updated, err := f.AdmitUpdate(ctx, created.ID, engine.AllocationPatch{Percentage: pctPtr(80)})
	require.NoError(t, err)

	assert.True(t, updated.Percentage.Equal(pct(80)))
	assert.Equal(t, "Engineer", updated.Role)
	assert.True(t, updated.Period.Start.Equal(day(2025, time.March, 1)))
	assert.True(t, updated.Period.End.Equal(day(2025, time.March, 31)))
}

func TestAdmitUpdate_ExcludesSelfFromChecks(t *testing.T) {
	// GIVEN: A lone 60% allocation
	// WHEN: Raising it to 100%
	// THEN: Accepted; the record doesn't conflict with its own old version

	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	created, err := f.Admit(ctx, proposal(projectID, personID, 60, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	updated, err := f.AdmitUpdate(ctx, created.ID, engine.AllocationPatch{Percentage: pctPtr(100)})
	require.NoError(t, err)
	assert.True(t, updated.Percentage.Equal(pct(100)))
}

func TestAdmitUpdate_MergedCandidateRejected(t *testing.T) {
	// GIVEN: Two allocations that fill capacity (60 + 40)
	// WHEN: Raising the second to 50
	// THEN: capacity_exceeded; the stored record is untouched

	f, mem, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	other := engine.Project{Name: "Second Project"}
	require.NoError(t, mem.InsertProject(ctx, &other))

	_, err := f.Admit(ctx, proposal(projectID, personID, 60, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)
	second, err := f.Admit(ctx, proposal(other.ID, personID, 40, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	_, err = f.AdmitUpdate(ctx, second.ID, engine.AllocationPatch{Percentage: pctPtr(50)})
	assert.ErrorIs(t, err, engine.ErrCapacityExceeded)

	stored, err := mem.GetAllocation(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, stored.Percentage.Equal(pct(40)), "rejected update must not persist")
}

func TestAdmitUpdate_InvalidMergedPeriod_Rejected(t *testing.T) {
	// Patching only the end date can invert the range; the merged
	// candidate is what gets validated.
	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	created, err := f.Admit(ctx, proposal(projectID, personID, 50, 2025, time.March, 10, 2025, time.March, 31))
	require.NoError(t, err)

	badEnd := day(2025, time.March, 1)
	_, err = f.AdmitUpdate(ctx, created.ID, engine.AllocationPatch{End: &badEnd})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestAdmitUpdate_UnknownAllocation(t *testing.T) {
	f, _, _, _ := newTestFeasibility(t)

	_, err := f.AdmitUpdate(context.Background(), 9999, engine.AllocationPatch{Percentage: pctPtr(10)})
	assert.ErrorIs(t, err, engine.ErrAllocationNotFound)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_FreesCapacity(t *testing.T) {
	// GIVEN: A full-time commitment blocking any further allocation
	// WHEN: Deleting it
	// THEN: A new full-time proposal for the same range is admitted

	f, mem, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	other := engine.Project{Name: "Second Project"}
	require.NoError(t, mem.InsertProject(ctx, &other))

	created, err := f.Admit(ctx, proposal(projectID, personID, 100, 2025, time.March, 1, 2025, time.March, 31))
	require.NoError(t, err)

	_, err = f.Admit(ctx, proposal(other.ID, personID, 100, 2025, time.March, 1, 2025, time.March, 31))
	assert.ErrorIs(t, err, engine.ErrCapacityExceeded)

	require.NoError(t, f.Delete(ctx, created.ID))

	_, err = f.Admit(ctx, proposal(other.ID, personID, 100, 2025, time.March, 1, 2025, time.March, 31))
	assert.NoError(t, err)
}

func TestDelete_UnknownAllocation(t *testing.T) {
	f, _, _, _ := newTestFeasibility(t)
	err := f.Delete(context.Background(), 9999)
	assert.ErrorIs(t, err, engine.ErrAllocationNotFound)
}

// =============================================================================
// AVAILABILITY WINDOW ADMISSION
// =============================================================================

func TestAdmitWindow_Valid(t *testing.T) {
	f, _, personID, _ := newTestFeasibility(t)

	got, err := f.AdmitWindow(context.Background(), engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(50),
		Period:     span(2025, time.June, 1, 2025, time.June, 30),
		Notes:      "parental leave, half days",
	})
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.True(t, got.Percentage.Equal(pct(50)))
}

func TestAdmitWindow_DefaultsToFullyAvailable(t *testing.T) {
	f, _, personID, _ := newTestFeasibility(t)

	got, err := f.AdmitWindow(context.Background(), engine.WindowProposal{
		PersonID: personID,
		Period:   span(2025, time.June, 1, 2025, time.June, 30),
	})
	require.NoError(t, err)
	assert.True(t, got.Percentage.Equal(pct(100)))
}

func TestAdmitWindow_OverlapRejected(t *testing.T) {
	f, _, personID, _ := newTestFeasibility(t)
	ctx := context.Background()

	_, err := f.AdmitWindow(ctx, engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(50),
		Period:     span(2025, time.June, 1, 2025, time.June, 15),
	})
	require.NoError(t, err)

	_, err = f.AdmitWindow(ctx, engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(80),
		Period:     span(2025, time.June, 10, 2025, time.June, 30),
	})
	assert.ErrorIs(t, err, engine.ErrAvailabilityOverlap)
}

func TestAdmitWindow_UnknownPerson(t *testing.T) {
	f, _, _, _ := newTestFeasibility(t)

	_, err := f.AdmitWindow(context.Background(), engine.WindowProposal{
		PersonID:   9999,
		Percentage: pctPtr(50),
		Period:     span(2025, time.June, 1, 2025, time.June, 30),
	})
	assert.ErrorIs(t, err, engine.ErrPersonNotFound)
}

func TestAdmitWindowUpdate_CanShrinkIntoPlace(t *testing.T) {
	// GIVEN: Two adjacent windows
	// WHEN: Moving the first's end date up to (but not past) the second
	// THEN: Accepted; its own record is excluded from the overlap check

	f, _, personID, _ := newTestFeasibility(t)
	ctx := context.Background()

	first, err := f.AdmitWindow(ctx, engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(50),
		Period:     span(2025, time.June, 1, 2025, time.June, 10),
	})
	require.NoError(t, err)

	_, err = f.AdmitWindow(ctx, engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(80),
		Period:     span(2025, time.June, 16, 2025, time.June, 30),
	})
	require.NoError(t, err)

	newEnd := day(2025, time.June, 15)
	updated, err := f.AdmitWindowUpdate(ctx, first.ID, engine.WindowPatch{End: &newEnd})
	require.NoError(t, err)
	assert.True(t, updated.Period.End.Equal(newEnd))

	// Growing into the neighbor is still rejected.
	badEnd := day(2025, time.June, 20)
	_, err = f.AdmitWindowUpdate(ctx, first.ID, engine.WindowPatch{End: &badEnd})
	assert.ErrorIs(t, err, engine.ErrAvailabilityOverlap)
}

func TestDeleteWindow_RestoresDefaultAvailability(t *testing.T) {
	// GIVEN: A 0% window blocking admissions in June
	// WHEN: Deleting the window
	// THEN: A full-time June proposal is admitted

	f, _, personID, projectID := newTestFeasibility(t)
	ctx := context.Background()

	w, err := f.AdmitWindow(ctx, engine.WindowProposal{
		PersonID:   personID,
		Percentage: pctPtr(0),
		Period:     span(2025, time.June, 1, 2025, time.June, 30),
	})
	require.NoError(t, err)

	_, err = f.Admit(ctx, proposal(projectID, personID, 100, 2025, time.June, 1, 2025, time.June, 30))
	assert.ErrorIs(t, err, engine.ErrInsufficientAvailability)

	require.NoError(t, f.DeleteWindow(ctx, w.ID))

	_, err = f.Admit(ctx, proposal(projectID, personID, 100, 2025, time.June, 1, 2025, time.June, 30))
	assert.NoError(t, err)
}

/*
feasibility.go - The admission decision pipeline

PURPOSE:
  Decides whether a proposed allocation (create or update) is admissible,
  then persists it only on accept. One synchronous evaluation per
  request, no retries, no partial state.

ADMISSION PIPELINE:
  proposal ──▶ ACCEPTED | REJECTED(reason)

  1. Structural:   required fields, percentage in [0,100], end > start
                   ──▶ rejected invalid_input
  2. Referential:  project exists, person exists
                   ──▶ rejected not_found
  3. Duplicate:    same project+person already overlaps
                   ──▶ rejected duplicate_assignment
  4. Availability: effective availability < requested percentage
                   ──▶ rejected insufficient_availability
  5. Capacity:     pairwise commitment sum over the ceiling
                   ──▶ rejected capacity_exceeded
  6. Persist.

UPDATES:
  The same pipeline runs against the merged candidate: unset patch
  fields inherit the existing record, and steps 3-5 exclude the record
  being updated from the existing set.

CONCURRENCY:
  The entire read-then-decide-then-write sequence runs inside
  TxStore.WithTx. The store must serialize per-person writes (the SQLite
  store takes an immediate transaction); without that, two concurrent
  admissions could both read a clean state and together oversubscribe.

SEE ALSO:
  - availability.go: Step 4
  - capacity.go: Steps 3 and 5
  - errors.go: Rejection detail types
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// DECISION - Admission state machine
// =============================================================================

type DecisionState string

const (
	DecisionAccepted DecisionState = "accepted"
	DecisionRejected DecisionState = "rejected"
)

type RejectReason string

const (
	ReasonInvalidInput             RejectReason = "invalid_input"
	ReasonNotFound                 RejectReason = "not_found"
	ReasonDuplicateAssignment      RejectReason = "duplicate_assignment"
	ReasonInsufficientAvailability RejectReason = "insufficient_availability"
	ReasonCapacityExceeded         RejectReason = "capacity_exceeded"
)

// Decision is the outcome of one admission evaluation. Explanation is
// the structured taxonomy error when rejected, nil when accepted.
type Decision struct {
	State       DecisionState
	Reason      RejectReason
	Explanation error
}

func accepted() Decision {
	return Decision{State: DecisionAccepted}
}

func rejected(reason RejectReason, explanation error) Decision {
	return Decision{State: DecisionRejected, Reason: reason, Explanation: explanation}
}

// =============================================================================
// FEASIBILITY ENGINE
// =============================================================================

// Feasibility orchestrates the availability and allocation ledgers into
// accept/reject decisions and owns the write path for allocations and
// availability windows.
type Feasibility struct {
	Store    TxStore
	Defaults Defaults

	now func() time.Time
}

func NewFeasibility(store TxStore, defaults Defaults) *Feasibility {
	return &Feasibility{Store: store, Defaults: defaults, now: time.Now}
}

// Admit evaluates a proposed allocation and inserts it when accepted.
// On rejection the returned error is one of the taxonomy errors.
func (f *Feasibility) Admit(ctx context.Context, proposal AllocationProposal) (*Allocation, error) {
	candidate := Allocation{
		ProjectID:  proposal.ProjectID,
		PersonID:   proposal.PersonID,
		Percentage: resolvePercentage(proposal.Percentage, f.Defaults.AllocationPercentage),
		Period:     proposal.Period,
		Role:       proposal.Role,
	}

	var admitted *Allocation
	err := f.Store.WithTx(ctx, func(s Store) error {
		decision, err := f.evaluate(ctx, s, candidate, 0)
		if err != nil {
			return err
		}
		if decision.State == DecisionRejected {
			return decision.Explanation
		}

		now := f.now()
		candidate.CreatedAt = now
		candidate.UpdatedAt = now
		if err := s.InsertAllocation(ctx, &candidate); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
		admitted = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admitted, nil
}

// AdmitUpdate merges the patch into the existing allocation and re-runs
// the full pipeline with the record excluded from its own checks.
func (f *Feasibility) AdmitUpdate(ctx context.Context, id AllocationID, patch AllocationPatch) (*Allocation, error) {
	var updated *Allocation
	err := f.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetAllocation(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load allocation: %w", err)
		}
		if existing == nil {
			return ErrAllocationNotFound
		}

		candidate := mergeAllocation(*existing, patch)

		decision, err := f.evaluate(ctx, s, candidate, id)
		if err != nil {
			return err
		}
		if decision.State == DecisionRejected {
			return decision.Explanation
		}

		candidate.UpdatedAt = f.now()
		if err := s.UpdateAllocation(ctx, candidate); err != nil {
			return fmt.Errorf("failed to update allocation: %w", err)
		}
		updated = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an allocation unconditionally. No side effects on any
// other record.
func (f *Feasibility) Delete(ctx context.Context, id AllocationID) error {
	return f.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetAllocation(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load allocation: %w", err)
		}
		if existing == nil {
			return ErrAllocationNotFound
		}
		return s.DeleteAllocation(ctx, id)
	})
}

// evaluate runs the admission pipeline for a fully-resolved candidate.
// exclude is the id of the record being updated, 0 for creates. The
// returned error is reserved for store failures; rejections travel in
// the Decision.
func (f *Feasibility) evaluate(ctx context.Context, s Store, candidate Allocation, exclude AllocationID) (Decision, error) {
	// 1. Structural validation.
	if verr := validateAllocation(candidate); verr != nil {
		return rejected(ReasonInvalidInput, verr), nil
	}

	// 2. Referential validation: project first, then person.
	project, err := s.GetProject(ctx, candidate.ProjectID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return rejected(ReasonNotFound, ErrProjectNotFound), nil
	}
	person, err := s.GetPerson(ctx, candidate.PersonID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load person: %w", err)
	}
	if person == nil {
		return rejected(ReasonNotFound, ErrPersonNotFound), nil
	}

	allocations := NewAllocationLedger(s, f.Defaults)
	availability := NewAvailabilityLedger(s, f.Defaults)

	// 3. Duplicate-assignment guard, independent of capacity.
	duplicate, err := allocations.DuplicateAssignment(ctx, candidate.ProjectID, candidate.PersonID, candidate.Period, exclude)
	if err != nil {
		return Decision{}, err
	}
	if duplicate != nil {
		return rejected(ReasonDuplicateAssignment, &DuplicateAssignmentError{
			ProjectID: candidate.ProjectID,
			PersonID:  candidate.PersonID,
			Existing:  *duplicate,
		}), nil
	}

	// 4. Availability check.
	effective, err := availability.Effective(ctx, candidate.PersonID, candidate.Period)
	if err != nil {
		return Decision{}, err
	}
	if effective.Percentage.LessThan(candidate.Percentage) {
		conflicts, err := availability.FindConflicts(ctx, candidate.PersonID, candidate.Period, candidate.Percentage)
		if err != nil {
			return Decision{}, err
		}
		return rejected(ReasonInsufficientAvailability, &InsufficientAvailabilityError{
			PersonID:  candidate.PersonID,
			Average:   effective.Percentage,
			Required:  candidate.Percentage,
			Conflicts: conflicts,
		}), nil
	}

	// 5. Capacity check.
	check, err := allocations.CheckCapacity(ctx, candidate, exclude)
	if err != nil {
		return Decision{}, err
	}
	if check.Exceeded {
		return rejected(ReasonCapacityExceeded, &CapacityExceededError{
			PersonID:       candidate.PersonID,
			CurrentTotal:   check.CurrentTotal,
			Requested:      check.Requested,
			ResultingTotal: check.ResultingTotal,
			Ceiling:        f.Defaults.Capacity,
		}), nil
	}

	return accepted(), nil
}

func validateAllocation(a Allocation) *ValidationError {
	if a.ProjectID == 0 {
		return &ValidationError{Field: "project_id", Message: "required"}
	}
	if a.PersonID == 0 {
		return &ValidationError{Field: "person_id", Message: "required"}
	}
	if verr := validatePercentage("allocation_percentage", a.Percentage); verr != nil {
		return verr
	}
	return validatePeriod(a.Period)
}

func validatePercentage(field string, p decimal.Decimal) *ValidationError {
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return &ValidationError{Field: field, Message: "must be between 0 and 100"}
	}
	return nil
}

func validatePeriod(p interval.Period) *ValidationError {
	if p.Start.IsZero() {
		return &ValidationError{Field: "start_date", Message: "required"}
	}
	if p.End.IsZero() {
		return &ValidationError{Field: "end_date", Message: "required"}
	}
	if !p.Valid() {
		return &ValidationError{Field: "end_date", Message: "must be after start_date"}
	}
	return nil
}

func mergeAllocation(existing Allocation, patch AllocationPatch) Allocation {
	merged := existing
	if patch.Percentage != nil {
		merged.Percentage = *patch.Percentage
	}
	if patch.Start != nil {
		merged.Period.Start = *patch.Start
	}
	if patch.End != nil {
		merged.Period.End = *patch.End
	}
	if patch.Role != nil {
		merged.Role = *patch.Role
	}
	return merged
}

// =============================================================================
// AVAILABILITY WINDOW ADMISSION
// =============================================================================

// AdmitWindow validates and inserts an availability window: structural
// checks, person existence, then the no-overlap invariant.
func (f *Feasibility) AdmitWindow(ctx context.Context, proposal WindowProposal) (*AvailabilityWindow, error) {
	candidate := AvailabilityWindow{
		PersonID:   proposal.PersonID,
		Percentage: resolvePercentage(proposal.Percentage, f.Defaults.AvailabilityPercentage),
		Period:     proposal.Period,
		Notes:      proposal.Notes,
	}

	var admitted *AvailabilityWindow
	err := f.Store.WithTx(ctx, func(s Store) error {
		if err := f.checkWindow(ctx, s, candidate, 0); err != nil {
			return err
		}

		candidate.CreatedAt = f.now()
		if err := s.InsertWindow(ctx, &candidate); err != nil {
			return fmt.Errorf("failed to insert availability window: %w", err)
		}
		admitted = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admitted, nil
}

// AdmitWindowUpdate merges the patch into the existing window and
// re-validates, excluding the window from its own overlap check.
func (f *Feasibility) AdmitWindowUpdate(ctx context.Context, id WindowID, patch WindowPatch) (*AvailabilityWindow, error) {
	var updated *AvailabilityWindow
	err := f.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetWindow(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load availability window: %w", err)
		}
		if existing == nil {
			return ErrWindowNotFound
		}

		candidate := *existing
		if patch.Percentage != nil {
			candidate.Percentage = *patch.Percentage
		}
		if patch.Start != nil {
			candidate.Period.Start = *patch.Start
		}
		if patch.End != nil {
			candidate.Period.End = *patch.End
		}
		if patch.Notes != nil {
			candidate.Notes = *patch.Notes
		}

		if err := f.checkWindow(ctx, s, candidate, id); err != nil {
			return err
		}

		if err := s.UpdateWindow(ctx, candidate); err != nil {
			return fmt.Errorf("failed to update availability window: %w", err)
		}
		updated = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteWindow removes an availability window. No cascading effects:
// availability is advisory context for future checks, never enforced
// retroactively against existing allocations.
func (f *Feasibility) DeleteWindow(ctx context.Context, id WindowID) error {
	return f.Store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetWindow(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load availability window: %w", err)
		}
		if existing == nil {
			return ErrWindowNotFound
		}
		return s.DeleteWindow(ctx, id)
	})
}

func (f *Feasibility) checkWindow(ctx context.Context, s Store, candidate AvailabilityWindow, exclude WindowID) error {
	if candidate.PersonID == 0 {
		return &ValidationError{Field: "person_id", Message: "required"}
	}
	if verr := validatePercentage("availability_percentage", candidate.Percentage); verr != nil {
		return verr
	}
	if verr := validatePeriod(candidate.Period); verr != nil {
		return verr
	}

	person, err := s.GetPerson(ctx, candidate.PersonID)
	if err != nil {
		return fmt.Errorf("failed to load person: %w", err)
	}
	if person == nil {
		return ErrPersonNotFound
	}

	availability := NewAvailabilityLedger(s, f.Defaults)
	return availability.CheckOverlap(ctx, candidate.PersonID, candidate.Period, exclude)
}

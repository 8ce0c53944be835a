package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// ALLOCATION LEDGER - Per-person committed percentage accounting
// =============================================================================

// AllocationLedger answers capacity questions over a person's set of
// percentage-weighted project commitments.
type AllocationLedger struct {
	Store    Store
	Defaults Defaults
}

func NewAllocationLedger(store Store, defaults Defaults) *AllocationLedger {
	return &AllocationLedger{Store: store, Defaults: defaults}
}

// Overlapping returns all of the person's allocations intersecting the
// period, optionally excluding one for update-in-place checks.
func (l *AllocationLedger) Overlapping(ctx context.Context, personID PersonID, period interval.Period, exclude AllocationID) ([]Allocation, error) {
	allocations, err := l.Store.AllocationsInRange(ctx, personID, period, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	return allocations, nil
}

// DuplicateAssignment returns the existing allocation for the same
// project+person pair whose range overlaps the period, or nil.
func (l *AllocationLedger) DuplicateAssignment(ctx context.Context, projectID ProjectID, personID PersonID, period interval.Period, exclude AllocationID) (*Allocation, error) {
	overlapping, err := l.Overlapping(ctx, personID, period, exclude)
	if err != nil {
		return nil, err
	}
	for i := range overlapping {
		if overlapping[i].ProjectID == projectID {
			return &overlapping[i], nil
		}
	}
	return nil, nil
}

// CapacityCheck summarizes a capacity evaluation for rejection detail.
type CapacityCheck struct {
	Exceeded       bool
	CurrentTotal   decimal.Decimal // committed by existing allocations on the contested days
	Requested      decimal.Decimal
	ResultingTotal decimal.Decimal
}

// WouldExceedCapacity checks whether adding the candidate to the existing
// set pushes any entry's pairwise-summed commitment over the ceiling.
//
// The check is pairwise, not a day-by-day sweep: for each entry in the
// combined set, it sums that entry's percentage with every OTHER entry
// whose range overlaps it, regardless of whether those others overlap
// each other. This matches the historical admission behavior exactly,
// including its conservative bias: a chain like Jan-Feb, Feb-Mar,
// Mar-Apr is rejected through the middle entry even when no single day
// carries the full sum.
func WouldExceedCapacity(candidate Allocation, existing []Allocation, ceiling decimal.Decimal) CapacityCheck {
	combined := make([]Allocation, 0, len(existing)+1)
	combined = append(combined, existing...)
	combined = append(combined, candidate)

	exceeded := false
	for i := range combined {
		total := combined[i].Percentage
		for j := range combined {
			if j == i {
				continue
			}
			if combined[i].Period.Overlaps(combined[j].Period) {
				total = total.Add(combined[j].Percentage)
			}
		}
		if total.GreaterThan(ceiling) {
			exceeded = true
			break
		}
	}

	// Detail is reported from the candidate's perspective: what the
	// contested days already carry vs. what was requested.
	current := decimal.Zero
	for _, a := range existing {
		if a.Period.Overlaps(candidate.Period) {
			current = current.Add(a.Percentage)
		}
	}

	return CapacityCheck{
		Exceeded:       exceeded,
		CurrentTotal:   current,
		Requested:      candidate.Percentage,
		ResultingTotal: current.Add(candidate.Percentage),
	}
}

// CheckCapacity loads the person's overlapping allocations and evaluates
// the candidate against them.
func (l *AllocationLedger) CheckCapacity(ctx context.Context, candidate Allocation, exclude AllocationID) (CapacityCheck, error) {
	existing, err := l.Overlapping(ctx, candidate.PersonID, candidate.Period, exclude)
	if err != nil {
		return CapacityCheck{}, err
	}
	return WouldExceedCapacity(candidate, existing, l.Defaults.Capacity), nil
}

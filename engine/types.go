/*
Package engine is the allocation consistency core.

PURPOSE:
  Decides whether time-bounded, percentage-weighted commitments of people
  to projects are feasible, and reports utilization over arbitrary date
  ranges. Each person has 100% of capacity per calendar day; allocations
  consume it and availability windows cap it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: a percentage-weighted assignment of a person to a project
    over an inclusive date range
  - AvailabilityWindow: a declaration of how much of a person's capacity
    is usable at all over a range, independent of any project
  - Person / Project: external entities referenced by id; the engine only
    needs their identity
  - Defaults: named default values resolved once at the boundary instead
    of scattered fallbacks in merge logic

DESIGN PRINCIPLES:
  1. Precision: percentages are decimal.Decimal, never float64
  2. One source of truth: all overlap math lives in package interval
  3. Explicit dependencies: every component takes a Store at construction,
     no ambient globals

SEE ALSO:
  - availability.go: effective availability over a query range
  - capacity.go: committed-percentage accounting and capacity checks
  - feasibility.go: the admission decision pipeline
  - reporting.go: utilization time series
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID int64
type ProjectID int64
type AllocationID int64
type WindowID int64

// =============================================================================
// DOMAIN RECORDS
// =============================================================================

// Person is an external entity; the engine references it by id only.
// Lifecycle (hiring, offboarding) belongs to the personnel collaborator.
type Person struct {
	ID        PersonID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Project is an external entity referenced by allocations.
type Project struct {
	ID        ProjectID
	Name      string
	CreatedAt time.Time
}

// Allocation is a time-bounded, percentage-weighted assignment of a
// person to a project. Invariants enforced by the Feasibility engine:
//   - Period.End > Period.Start
//   - per person, per calendar day, the sum of overlapping allocation
//     percentages never exceeds 100 (subject to the pairwise check in
//     capacity.go)
//   - no two allocations for the same (project, person) pair overlap
type Allocation struct {
	ID         AllocationID
	ProjectID  ProjectID
	PersonID   PersonID
	Percentage decimal.Decimal
	Period     interval.Period
	Role       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AvailabilityWindow caps a person's usable capacity over a date range.
// Windows for the same person must not overlap each other. Availability
// is advisory context for future admissions; editing a window never
// retroactively invalidates existing allocations.
type AvailabilityWindow struct {
	ID         WindowID
	PersonID   PersonID
	Percentage decimal.Decimal
	Period     interval.Period
	Notes      string
	CreatedAt  time.Time
}

// =============================================================================
// PROPOSALS AND PATCHES - Boundary input shapes
// =============================================================================

// AllocationProposal is a request to create an allocation. Percentage is
// optional; nil resolves to Defaults.AllocationPercentage exactly once,
// before validation.
type AllocationProposal struct {
	ProjectID  ProjectID
	PersonID   PersonID
	Percentage *decimal.Decimal
	Period     interval.Period
	Role       string
}

// AllocationPatch carries the fields of an update. Unset fields inherit
// the existing record's values before the merged candidate is
// re-validated.
type AllocationPatch struct {
	Percentage *decimal.Decimal
	Start      *interval.Date
	End        *interval.Date
	Role       *string
}

// WindowProposal is a request to create an availability window.
type WindowProposal struct {
	PersonID   PersonID
	Percentage *decimal.Decimal
	Period     interval.Period
	Notes      string
}

// WindowPatch carries the fields of an availability window update.
type WindowPatch struct {
	Percentage *decimal.Decimal
	Start      *interval.Date
	End        *interval.Date
	Notes      *string
}

// =============================================================================
// DEFAULTS - Named defaults, resolved once at the boundary
// =============================================================================

// Defaults holds the engine's named default values. Construct with
// DefaultConfig; tests may override individual fields.
type Defaults struct {
	// AllocationPercentage is used when a proposal omits the percentage.
	AllocationPercentage decimal.Decimal

	// AvailabilityPercentage is both the window default and the effective
	// availability of a person with no declared windows.
	AvailabilityPercentage decimal.Decimal

	// Capacity is the per-person, per-day ceiling on summed allocations.
	Capacity decimal.Decimal

	// UtilizationDisplayCap clamps monthly utilization figures so chart
	// scales stay bounded. Values at or below the cap pass through.
	UtilizationDisplayCap decimal.Decimal
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Defaults {
	return Defaults{
		AllocationPercentage:   decimal.NewFromInt(100),
		AvailabilityPercentage: decimal.NewFromInt(100),
		Capacity:               decimal.NewFromInt(100),
		UtilizationDisplayCap:  decimal.NewFromInt(200),
	}
}

// resolvePercentage applies a default to an optional percentage.
func resolvePercentage(p *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if p == nil {
		return def
	}
	return *p
}

/*
reporting.go - Utilization reporting

PURPOSE:
  Read-only aggregation of allocation data into per-person utilization
  summaries and per-month team time series for dashboards. Reporting
  sums commitments without capping them: over-allocation is itself
  informative, so a 150% month reports 150 (subject only to the display
  cap that bounds chart scale).

SEE ALSO:
  - capacity.go: The write-path view of the same records
  - interval: Month bucketing helpers
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// REPORTER
// =============================================================================

// Reporter computes utilization figures. Now is injectable for tests;
// it anchors the derived window and the team horizon.
type Reporter struct {
	Store    Store
	Defaults Defaults
	Now      func() interval.Date
}

func NewReporter(store Store, defaults Defaults) *Reporter {
	return &Reporter{Store: store, Defaults: defaults, Now: interval.Today}
}

// UtilizationSummary is a person's utilization over a date range.
// TotalDays is nil when no range was given and the person has no
// current or future allocations to derive one from.
type UtilizationSummary struct {
	PersonID           PersonID
	Percentage         decimal.Decimal
	TotalAllocatedDays int
	TotalDays          *int
	AvailableCapacity  decimal.Decimal
}

// PersonnelUtilization computes a person's utilization. With a period,
// the figure is the day-weighted average of overlapping allocations'
// percentages over the full span - summed, not capped. Without one, the
// window is derived from the person's current and future allocations
// (end date on or after today); with none, utilization is zero.
func (r *Reporter) PersonnelUtilization(ctx context.Context, personID PersonID, period *interval.Period) (UtilizationSummary, error) {
	person, err := r.Store.GetPerson(ctx, personID)
	if err != nil {
		return UtilizationSummary{}, fmt.Errorf("failed to load person: %w", err)
	}
	if person == nil {
		return UtilizationSummary{}, ErrPersonNotFound
	}

	// A caller-supplied range goes through the same structural bar as an
	// admission period; a reversed range would otherwise divide by a zero
	// or negative span below.
	if period != nil {
		if verr := validatePeriod(*period); verr != nil {
			return UtilizationSummary{}, verr
		}
	}

	if period == nil {
		derived, ok, err := r.deriveWindow(ctx, personID)
		if err != nil {
			return UtilizationSummary{}, err
		}
		if !ok {
			return UtilizationSummary{
				PersonID:          personID,
				Percentage:        decimal.Zero,
				AvailableCapacity: r.Defaults.Capacity,
			}, nil
		}
		period = &derived
	}

	allocations, err := r.Store.AllocationsInRange(ctx, personID, *period, 0)
	if err != nil {
		return UtilizationSummary{}, fmt.Errorf("failed to load allocations: %w", err)
	}

	totalDays := period.SpanDays()
	weighted := decimal.Zero
	allocatedDays := decimal.Zero
	for _, a := range allocations {
		days := decimal.NewFromInt(int64(a.Period.IntersectionDays(*period)))
		weighted = weighted.Add(a.Percentage.Mul(days))
		allocatedDays = allocatedDays.Add(a.Percentage.Mul(days).Div(decimal.NewFromInt(100)))
	}

	percentage := weighted.Div(decimal.NewFromInt(int64(totalDays))).Round(0)

	remaining := r.Defaults.Capacity.Sub(percentage)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return UtilizationSummary{
		PersonID:           personID,
		Percentage:         percentage,
		TotalAllocatedDays: int(allocatedDays.Round(0).IntPart()),
		TotalDays:          &totalDays,
		AvailableCapacity:  remaining,
	}, nil
}

// deriveWindow spans from the earliest start to the latest end among
// allocations still current or in the future. ok is false when the
// person has none.
func (r *Reporter) deriveWindow(ctx context.Context, personID PersonID) (interval.Period, bool, error) {
	allocations, err := r.Store.AllocationsByPerson(ctx, personID)
	if err != nil {
		return interval.Period{}, false, fmt.Errorf("failed to load allocations: %w", err)
	}

	today := r.Now()
	var window interval.Period
	found := false
	for _, a := range allocations {
		if a.Period.End.Before(today) {
			continue
		}
		if !found {
			window = a.Period
			found = true
			continue
		}
		window.Start = interval.Min(window.Start, a.Period.Start)
		window.End = interval.Max(window.End, a.Period.End)
	}
	return window, found, nil
}

// =============================================================================
// TEAM UTILIZATION BY MONTH
// =============================================================================

// MonthlyUtilization is one calendar-month bucket. Month is formatted
// YYYY-MM.
type MonthlyUtilization struct {
	Month       string
	Utilization decimal.Decimal
}

// PersonUtilization is one person's monthly series over the horizon.
// TotalUtilization is the arithmetic mean of all monthly figures,
// zero months included, rounded to the nearest integer.
type PersonUtilization struct {
	Person           Person
	Months           []MonthlyUtilization
	TotalUtilization decimal.Decimal
}

// TeamUtilizationByMonth buckets every person's allocations by calendar
// month from today through today + horizonMonths. A month's figure is
// the SUM of percentages of every allocation overlapping that month,
// clamped at the display cap. People with no allocations in the horizon
// get all-zero months, not omission.
func (r *Reporter) TeamUtilizationByMonth(ctx context.Context, horizonMonths int) ([]PersonUtilization, error) {
	if horizonMonths < 1 {
		return nil, &ValidationError{Field: "months", Message: "must be at least 1"}
	}

	persons, err := r.Store.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}

	today := r.Now()
	horizon := interval.NewPeriod(today, today.AddMonths(horizonMonths))
	months := interval.MonthsCovering(horizon)

	result := make([]PersonUtilization, 0, len(persons))
	for _, person := range persons {
		allocations, err := r.Store.AllocationsInRange(ctx, person.ID, horizon, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load allocations: %w", err)
		}

		series := PersonUtilization{Person: person}
		sum := decimal.Zero
		for _, month := range months {
			utilization := decimal.Zero
			for _, a := range allocations {
				if a.Period.Overlaps(month) {
					utilization = utilization.Add(a.Percentage)
				}
			}
			if utilization.GreaterThan(r.Defaults.UtilizationDisplayCap) {
				utilization = r.Defaults.UtilizationDisplayCap
			}
			sum = sum.Add(utilization)
			series.Months = append(series.Months, MonthlyUtilization{
				Month:       month.Start.Time.Format("2006-01"),
				Utilization: utilization,
			})
		}

		series.TotalUtilization = sum.Div(decimal.NewFromInt(int64(len(months)))).Round(0)
		result = append(result, series)
	}

	return result, nil
}

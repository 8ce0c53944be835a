package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// AVAILABILITY LEDGER - Per-person availability windows
// =============================================================================

// AvailabilityLedger answers availability questions over a person's set
// of disjoint, percentage-capped windows.
type AvailabilityLedger struct {
	Store    Store
	Defaults Defaults
}

func NewAvailabilityLedger(store Store, defaults Defaults) *AvailabilityLedger {
	return &AvailabilityLedger{Store: store, Defaults: defaults}
}

// EffectiveAvailability is the day-weighted average availability over a
// query range, plus the windows that contributed to it.
type EffectiveAvailability struct {
	Percentage decimal.Decimal
	Windows    []AvailabilityWindow
}

// Effective computes the person's effective availability over the query
// period. A person with no overlapping windows is fully available by
// default. Otherwise each overlapping window contributes its percentage
// weighted by the days it shares with the query; the denominator is the
// full query span, so days covered by no window dilute the average
// rather than defaulting to 100.
func (l *AvailabilityLedger) Effective(ctx context.Context, personID PersonID, period interval.Period) (EffectiveAvailability, error) {
	windows, err := l.Store.WindowsInRange(ctx, personID, period, 0)
	if err != nil {
		return EffectiveAvailability{}, fmt.Errorf("failed to load availability windows: %w", err)
	}

	if len(windows) == 0 {
		return EffectiveAvailability{Percentage: l.Defaults.AvailabilityPercentage}, nil
	}

	weighted := decimal.Zero
	for _, w := range windows {
		days := w.Period.IntersectionDays(period)
		weighted = weighted.Add(w.Percentage.Mul(decimal.NewFromInt(int64(days))))
	}

	span := decimal.NewFromInt(int64(period.SpanDays()))
	average := weighted.Div(span).Round(0)

	return EffectiveAvailability{Percentage: average, Windows: windows}, nil
}

// FindConflicts returns every overlapping window whose own percentage is
// strictly below required, independent of the weighted average. Used to
// attach per-window detail to rejections.
func (l *AvailabilityLedger) FindConflicts(ctx context.Context, personID PersonID, period interval.Period, required decimal.Decimal) ([]AvailabilityConflict, error) {
	windows, err := l.Store.WindowsInRange(ctx, personID, period, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability windows: %w", err)
	}

	var conflicts []AvailabilityConflict
	for _, w := range windows {
		if w.Percentage.LessThan(required) {
			conflicts = append(conflicts, AvailabilityConflict{
				Window: w,
				Message: fmt.Sprintf("only %s%% available %s, %s%% required",
					w.Percentage, w.Period, required),
			})
		}
	}
	return conflicts, nil
}

// CheckOverlap enforces the no-overlap invariant: a new or edited window
// must not intersect any other window belonging to the same person.
// exclude skips the window being updated.
func (l *AvailabilityLedger) CheckOverlap(ctx context.Context, personID PersonID, period interval.Period, exclude WindowID) error {
	windows, err := l.Store.WindowsInRange(ctx, personID, period, exclude)
	if err != nil {
		return fmt.Errorf("failed to load availability windows: %w", err)
	}
	if len(windows) > 0 {
		return &AvailabilityOverlapError{PersonID: personID, Existing: windows[0]}
	}
	return nil
}

/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  All rejection kinds in one place. Every validation and conflict error
  is detected before any write and carries enough structured detail for
  the HTTP collaborator to render an actionable message without a second
  round-trip.

ERROR CATEGORIES:
  1. Invalid input  - caller's fault, never retried
  2. Not found      - referenced person/project/allocation/window missing
  3. Conflicts      - duplicate assignment, insufficient availability,
                      capacity exceeded, availability overlap

USAGE:
  Sentinels compose with errors.Is, structured errors with errors.As:

    var capErr *engine.CapacityExceededError
    if errors.As(err, &capErr) {
        // capErr.CurrentTotal, capErr.Requested, ...
    }

SEE ALSO:
  - feasibility.go: Produces these errors
  - api/handlers.go: Maps them to transport status codes
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for missing/malformed fields, percentages
	// outside [0,100], or an end date not after the start date.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersonNotFound is returned when a referenced person doesn't exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrAllocationNotFound is returned when a referenced allocation doesn't exist.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrWindowNotFound is returned when a referenced availability window doesn't exist.
	ErrWindowNotFound = errors.New("availability window not found")

	// ErrDuplicateAssignment is returned when the same person+project pair
	// is already allocated in an overlapping range.
	ErrDuplicateAssignment = errors.New("duplicate project assignment")

	// ErrInsufficientAvailability is returned when effective availability
	// over the proposed range is below the requested percentage.
	ErrInsufficientAvailability = errors.New("insufficient availability")

	// ErrCapacityExceeded is returned when the proposal would push total
	// commitment over the capacity ceiling on some overlapping range.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrAvailabilityOverlap is returned when a new or edited availability
	// window intersects an existing window for the same person.
	ErrAvailabilityOverlap = errors.New("availability window overlap")
)

// =============================================================================
// STRUCTURED ERRORS - Carry machine-readable detail
// =============================================================================

// ValidationError describes a structural validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// DuplicateAssignmentError reports an overlapping allocation for the same
// project+person pair.
type DuplicateAssignmentError struct {
	ProjectID ProjectID
	PersonID  PersonID
	Existing  Allocation
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("person %d already allocated to project %d over %s",
		e.PersonID, e.ProjectID, e.Existing.Period)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

// AvailabilityConflict names one window whose own percentage is below
// what a proposal requires. Produced even when the day-weighted average
// passes, for human-readable detail.
type AvailabilityConflict struct {
	Window  AvailabilityWindow
	Message string
}

// InsufficientAvailabilityError reports that the day-weighted average
// availability over the proposed range is below the requested percentage.
type InsufficientAvailabilityError struct {
	PersonID  PersonID
	Average   decimal.Decimal
	Required  decimal.Decimal
	Conflicts []AvailabilityConflict
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("person %d is %s%% available on average, %s%% required",
		e.PersonID, e.Average, e.Required)
}

func (e *InsufficientAvailabilityError) Unwrap() error { return ErrInsufficientAvailability }

// CapacityExceededError reports that admitting the proposal would exceed
// the per-day capacity ceiling somewhere in the proposed range.
type CapacityExceededError struct {
	PersonID       PersonID
	CurrentTotal   decimal.Decimal // committed on the contested days before this proposal
	Requested      decimal.Decimal
	ResultingTotal decimal.Decimal
	Ceiling        decimal.Decimal
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("person %d would be committed %s%% (current %s%% + requested %s%%), ceiling %s%%",
		e.PersonID, e.ResultingTotal, e.CurrentTotal, e.Requested, e.Ceiling)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// AvailabilityOverlapError reports an intersecting window for the same person.
type AvailabilityOverlapError struct {
	PersonID PersonID
	Existing AvailabilityWindow
}

func (e *AvailabilityOverlapError) Error() string {
	return fmt.Sprintf("person %d already has an availability window over %s",
		e.PersonID, e.Existing.Period)
}

func (e *AvailabilityOverlapError) Unwrap() error { return ErrAvailabilityOverlap }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrWindowNotFound)
}

// IsConflict returns true for admission conflicts (mapped to 409 upstream).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrInsufficientAvailability) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrAvailabilityOverlap)
}

// IsClientError returns true if the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || IsNotFound(err) || IsConflict(err)
}

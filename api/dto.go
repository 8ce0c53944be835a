/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external contract: percentages cross
  the wire as numbers, dates as ISO calendar dates (YYYY-MM-DD).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers parse and normalize; the engine validates. Malformed dates and
  bodies never reach the decision pipeline.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/errors.go: The taxonomy behind ErrorResponse.Code
*/
package api

import (
	"time"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// ALLOCATIONS
// =============================================================================

// AllocationDTO represents an allocation in API responses.
type AllocationDTO struct {
	ID         int64   `json:"id"`
	ProjectID  int64   `json:"project_id"`
	PersonID   int64   `json:"person_id"`
	Percentage float64 `json:"allocation_percentage"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Role       string  `json:"role_in_project,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// CreateAllocationRequest is the request to create an allocation.
// Percentage defaults to 100 when omitted.
type CreateAllocationRequest struct {
	ProjectID  int64    `json:"project_id"`
	PersonID   int64    `json:"person_id"`
	Percentage *float64 `json:"allocation_percentage,omitempty"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Role       string   `json:"role_in_project,omitempty"`
}

// UpdateAllocationRequest carries the fields of an allocation update.
// Omitted fields inherit the existing record's values.
type UpdateAllocationRequest struct {
	Percentage *float64 `json:"allocation_percentage,omitempty"`
	StartDate  *string  `json:"start_date,omitempty"`
	EndDate    *string  `json:"end_date,omitempty"`
	Role       *string  `json:"role_in_project,omitempty"`
}

// RosterEntryDTO is an allocation joined with the person's identity,
// for project team views.
type RosterEntryDTO struct {
	AllocationDTO
	PersonName string `json:"person_name"`
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// AvailabilityDTO represents an availability window in API responses.
type AvailabilityDTO struct {
	ID         int64   `json:"id"`
	PersonID   int64   `json:"person_id"`
	Percentage float64 `json:"availability_percentage"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// CreateAvailabilityRequest is the request to declare an availability
// window. Percentage defaults to 100 when omitted.
type CreateAvailabilityRequest struct {
	PersonID   int64    `json:"person_id"`
	Percentage *float64 `json:"availability_percentage,omitempty"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Notes      string   `json:"notes,omitempty"`
}

// UpdateAvailabilityRequest carries the fields of a window update.
type UpdateAvailabilityRequest struct {
	Percentage *float64 `json:"availability_percentage,omitempty"`
	StartDate  *string  `json:"start_date,omitempty"`
	EndDate    *string  `json:"end_date,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// =============================================================================
// UTILIZATION
// =============================================================================

// UtilizationDTO is a person's utilization summary. TotalDays is null
// when no range was given and none could be derived.
type UtilizationDTO struct {
	PersonID           int64   `json:"person_id"`
	Percentage         float64 `json:"percentage"`
	TotalAllocatedDays int     `json:"total_allocated_days"`
	TotalDays          *int    `json:"total_days"`
	AvailableCapacity  float64 `json:"available_capacity"`
}

// MonthlyUtilizationDTO is one calendar-month bucket.
type MonthlyUtilizationDTO struct {
	Month       string  `json:"month"`
	Utilization float64 `json:"utilization"`
}

// PersonUtilizationDTO is one person's monthly utilization series.
type PersonUtilizationDTO struct {
	PersonID         int64                   `json:"person_id"`
	PersonName       string                  `json:"person_name"`
	Months           []MonthlyUtilizationDTO `json:"months"`
	TotalUtilization float64                 `json:"total_utilization"`
}

// =============================================================================
// PERSONNEL / PROJECTS (identity plumbing)
// =============================================================================

type PersonDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreatePersonRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type ProjectDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the standard error envelope. Code is the machine-
// readable taxonomy kind; Details carries conflict specifics so a UI
// can render an actionable message without a second round-trip.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAllocationDTO(a engine.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:         int64(a.ID),
		ProjectID:  int64(a.ProjectID),
		PersonID:   int64(a.PersonID),
		Percentage: a.Percentage.InexactFloat64(),
		StartDate:  a.Period.Start.String(),
		EndDate:    a.Period.End.String(),
		Role:       a.Role,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAllocationDTOs(allocations []engine.Allocation) []AllocationDTO {
	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = toAllocationDTO(a)
	}
	return dtos
}

func toAvailabilityDTO(w engine.AvailabilityWindow) AvailabilityDTO {
	return AvailabilityDTO{
		ID:         int64(w.ID),
		PersonID:   int64(w.PersonID),
		Percentage: w.Percentage.InexactFloat64(),
		StartDate:  w.Period.Start.String(),
		EndDate:    w.Period.End.String(),
		Notes:      w.Notes,
		CreatedAt:  w.CreatedAt.Format(time.RFC3339),
	}
}

func toAvailabilityDTOs(windows []engine.AvailabilityWindow) []AvailabilityDTO {
	dtos := make([]AvailabilityDTO, len(windows))
	for i, w := range windows {
		dtos[i] = toAvailabilityDTO(w)
	}
	return dtos
}

func toPersonDTO(p engine.Person) PersonDTO {
	return PersonDTO{
		ID:        int64(p.ID),
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toProjectDTO(p engine.Project) ProjectDTO {
	return ProjectDTO{
		ID:        int64(p.ID),
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toUtilizationDTO(u engine.UtilizationSummary) UtilizationDTO {
	return UtilizationDTO{
		PersonID:           int64(u.PersonID),
		Percentage:         u.Percentage.InexactFloat64(),
		TotalAllocatedDays: u.TotalAllocatedDays,
		TotalDays:          u.TotalDays,
		AvailableCapacity:  u.AvailableCapacity.InexactFloat64(),
	}
}

/*
handlers.go - HTTP API handlers for the staffing allocation engine

PURPOSE:
  Exposes the allocation consistency engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates every decision to
  the engine - no overlap or percentage math lives in this package.

ENDPOINTS:
  Allocations:
    POST   /api/allocations                              Propose an allocation
    PUT    /api/allocations/{id}                         Update (re-validated)
    DELETE /api/allocations/{id}                         Delete
    GET    /api/allocations/personnel/{id}               Person's allocations
    GET    /api/allocations/personnel/{id}/utilization   Utilization summary
    GET    /api/allocations/project/{id}                 Project roster
    GET    /api/allocations/team/utilization?months=N    Monthly team series

  Availability:
    POST   /api/availability                             Declare a window
    PUT    /api/availability/{id}                        Update a window
    DELETE /api/availability/{id}                        Delete a window
    GET    /api/availability/personnel/{id}              Person's windows

  Identity plumbing:
    GET|POST /api/personnel, /api/projects
    GET      /api/personnel/{id}

ERROR HANDLING:
  Engine taxonomy maps to transport status:
  - invalid_input                                   400
  - not_found                                       404
  - duplicate_assignment, insufficient_availability,
    capacity_exceeded, availability_overlap         409
  - anything else                                   500 (opaque)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/feasibility.go: The decision pipeline behind POST/PUT
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/interval"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. The store is the
// capability record from engine/store.go; nothing here reaches for
// ambient globals.
type Handler struct {
	Store       engine.TxStore
	Feasibility *engine.Feasibility
	Reporter    *engine.Reporter
}

// NewHandler creates a handler wired with the production defaults.
func NewHandler(store engine.TxStore) *Handler {
	defaults := engine.DefaultConfig()
	return &Handler{
		Store:       store,
		Feasibility: engine.NewFeasibility(store, defaults),
		Reporter:    engine.NewReporter(store, defaults),
	}
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// CreateAllocation proposes a new allocation.
// POST /api/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req CreateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}

	period, ok := parsePeriod(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	allocation, err := h.Feasibility.Admit(r.Context(), engine.AllocationProposal{
		ProjectID:  engine.ProjectID(req.ProjectID),
		PersonID:   engine.PersonID(req.PersonID),
		Percentage: toDecimal(req.Percentage),
		Period:     period,
		Role:       req.Role,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAllocationDTO(*allocation))
}

// UpdateAllocation re-validates the merged candidate and persists it.
// PUT /api/allocations/{id}
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}

	patch := engine.AllocationPatch{
		Percentage: toDecimal(req.Percentage),
		Role:       req.Role,
	}
	if req.StartDate != nil {
		start, ok := parseDate(w, "start_date", *req.StartDate)
		if !ok {
			return
		}
		patch.Start = &start
	}
	if req.EndDate != nil {
		end, ok := parseDate(w, "end_date", *req.EndDate)
		if !ok {
			return
		}
		patch.End = &end
	}

	allocation, err := h.Feasibility.AdmitUpdate(r.Context(), engine.AllocationID(id), patch)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTO(*allocation))
}

// DeleteAllocation removes an allocation unconditionally.
// DELETE /api/allocations/{id}
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.Feasibility.Delete(r.Context(), engine.AllocationID(id)); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// PersonAllocations returns all allocations for a person.
// GET /api/allocations/personnel/{id}
func (h *Handler) PersonAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	person, err := h.Store.GetPerson(r.Context(), engine.PersonID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load person", "", nil)
		return
	}
	if person == nil {
		writeEngineError(w, engine.ErrPersonNotFound)
		return
	}

	allocations, err := h.Store.AllocationsByPerson(r.Context(), engine.PersonID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load allocations", "", nil)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTOs(allocations))
}

// PersonUtilization returns the utilization summary for a person.
// GET /api/allocations/personnel/{id}/utilization?start_date&end_date
func (h *Handler) PersonUtilization(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var period *interval.Period
	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")
	if startStr != "" || endStr != "" {
		p, ok := parsePeriod(w, startStr, endStr)
		if !ok {
			return
		}
		period = &p
	}

	summary, err := h.Reporter.PersonnelUtilization(r.Context(), engine.PersonID(id), period)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUtilizationDTO(summary))
}

// ProjectRoster returns a project's allocations joined with person
// identity.
// GET /api/allocations/project/{id}
func (h *Handler) ProjectRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ctx := r.Context()
	project, err := h.Store.GetProject(ctx, engine.ProjectID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project", "", nil)
		return
	}
	if project == nil {
		writeEngineError(w, engine.ErrProjectNotFound)
		return
	}

	allocations, err := h.Store.AllocationsByProject(ctx, engine.ProjectID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load allocations", "", nil)
		return
	}

	roster := make([]RosterEntryDTO, 0, len(allocations))
	for _, a := range allocations {
		entry := RosterEntryDTO{AllocationDTO: toAllocationDTO(a)}
		if person, err := h.Store.GetPerson(ctx, a.PersonID); err == nil && person != nil {
			entry.PersonName = person.Name
		}
		roster = append(roster, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project": toProjectDTO(*project),
		"team":    roster,
	})
}

// TeamUtilization returns every person's monthly utilization series.
// GET /api/allocations/team/utilization?months=N
func (h *Handler) TeamUtilization(w http.ResponseWriter, r *http.Request) {
	months := 3
	if s := r.URL.Query().Get("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid months parameter", "invalid_input", nil)
			return
		}
		months = n
	}

	series, err := h.Reporter.TeamUtilizationByMonth(r.Context(), months)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]PersonUtilizationDTO, len(series))
	for i, s := range series {
		dto := PersonUtilizationDTO{
			PersonID:         int64(s.Person.ID),
			PersonName:       s.Person.Name,
			TotalUtilization: s.TotalUtilization.InexactFloat64(),
		}
		for _, m := range s.Months {
			dto.Months = append(dto.Months, MonthlyUtilizationDTO{
				Month:       m.Month,
				Utilization: m.Utilization.InexactFloat64(),
			})
		}
		dtos[i] = dto
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// AVAILABILITY HANDLERS
// =============================================================================

// CreateAvailability declares a new availability window.
// POST /api/availability
func (h *Handler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}

	period, ok := parsePeriod(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	window, err := h.Feasibility.AdmitWindow(r.Context(), engine.WindowProposal{
		PersonID:   engine.PersonID(req.PersonID),
		Percentage: toDecimal(req.Percentage),
		Period:     period,
		Notes:      req.Notes,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAvailabilityDTO(*window))
}

// UpdateAvailability re-validates and persists a window edit.
// PUT /api/availability/{id}
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}

	patch := engine.WindowPatch{
		Percentage: toDecimal(req.Percentage),
		Notes:      req.Notes,
	}
	if req.StartDate != nil {
		start, ok := parseDate(w, "start_date", *req.StartDate)
		if !ok {
			return
		}
		patch.Start = &start
	}
	if req.EndDate != nil {
		end, ok := parseDate(w, "end_date", *req.EndDate)
		if !ok {
			return
		}
		patch.End = &end
	}

	window, err := h.Feasibility.AdmitWindowUpdate(r.Context(), engine.WindowID(id), patch)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityDTO(*window))
}

// DeleteAvailability removes a window.
// DELETE /api/availability/{id}
func (h *Handler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.Feasibility.DeleteWindow(r.Context(), engine.WindowID(id)); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// PersonAvailability returns all windows for a person.
// GET /api/availability/personnel/{id}
func (h *Handler) PersonAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	person, err := h.Store.GetPerson(r.Context(), engine.PersonID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load person", "", nil)
		return
	}
	if person == nil {
		writeEngineError(w, engine.ErrPersonNotFound)
		return
	}

	windows, err := h.Store.WindowsByPerson(r.Context(), engine.PersonID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load availability windows", "", nil)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityDTOs(windows))
}

// =============================================================================
// IDENTITY PLUMBING - persons and projects (referential collaborators)
// =============================================================================

// ListPersonnel returns all persons.
// GET /api/personnel
func (h *Handler) ListPersonnel(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Store.ListPersons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list personnel", "", nil)
		return
	}

	dtos := make([]PersonDTO, len(persons))
	for i, p := range persons {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPerson returns a single person.
// GET /api/personnel/{id}
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	person, err := h.Store.GetPerson(r.Context(), engine.PersonID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load person", "", nil)
		return
	}
	if person == nil {
		writeEngineError(w, engine.ErrPersonNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toPersonDTO(*person))
}

// CreatePerson registers a person identity.
// POST /api/personnel
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name: required", "invalid_input", nil)
		return
	}

	person := engine.Person{Name: req.Name, Email: req.Email}
	if err := h.Store.InsertPerson(r.Context(), &person); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create person", "", nil)
		return
	}

	writeJSON(w, http.StatusCreated, toPersonDTO(person))
}

// ListProjects returns all projects.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", "", nil)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject registers a project identity.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_input", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name: required", "invalid_input", nil)
		return
	}

	project := engine.Project{Name: req.Name}
	if err := h.Store.InsertProject(r.Context(), &project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project", "", nil)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// =============================================================================
// PARSING AND RESPONSE HELPERS
// =============================================================================

func parseID(w http.ResponseWriter, s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid id", "invalid_input", nil)
		return 0, false
	}
	return id, true
}

func parseDate(w http.ResponseWriter, field, s string) (interval.Date, bool) {
	d, err := interval.ParseDate(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, field+": invalid date (use YYYY-MM-DD)", "invalid_input",
			map[string]any{"field": field})
		return interval.Date{}, false
	}
	return d, true
}

func parsePeriod(w http.ResponseWriter, startStr, endStr string) (interval.Period, bool) {
	if startStr == "" {
		writeError(w, http.StatusBadRequest, "start_date: required", "invalid_input",
			map[string]any{"field": "start_date"})
		return interval.Period{}, false
	}
	if endStr == "" {
		writeError(w, http.StatusBadRequest, "end_date: required", "invalid_input",
			map[string]any{"field": "end_date"})
		return interval.Period{}, false
	}
	start, ok := parseDate(w, "start_date", startStr)
	if !ok {
		return interval.Period{}, false
	}
	end, ok := parseDate(w, "end_date", endStr)
	if !ok {
		return interval.Period{}, false
	}
	return interval.NewPeriod(start, end), true
}

func toDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

// writeEngineError maps the engine taxonomy to transport status codes
// and attaches machine-readable conflict detail.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error(), "invalid_input",
			map[string]any{"field": verr.Field})
		return
	}
	if errors.Is(err, engine.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_input", nil)
		return
	}

	if engine.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error(), "not_found", nil)
		return
	}

	var dupErr *engine.DuplicateAssignmentError
	if errors.As(err, &dupErr) {
		writeError(w, http.StatusConflict, dupErr.Error(), "duplicate_assignment", map[string]any{
			"project_id":            int64(dupErr.ProjectID),
			"person_id":             int64(dupErr.PersonID),
			"conflicting_allocation": toAllocationDTO(dupErr.Existing),
		})
		return
	}

	var availErr *engine.InsufficientAvailabilityError
	if errors.As(err, &availErr) {
		conflicts := make([]map[string]any, len(availErr.Conflicts))
		for i, c := range availErr.Conflicts {
			conflicts[i] = map[string]any{
				"window":  toAvailabilityDTO(c.Window),
				"message": c.Message,
			}
		}
		writeError(w, http.StatusConflict, availErr.Error(), "insufficient_availability", map[string]any{
			"average_availability": availErr.Average.InexactFloat64(),
			"required":             availErr.Required.InexactFloat64(),
			"conflicts":            conflicts,
		})
		return
	}

	var capErr *engine.CapacityExceededError
	if errors.As(err, &capErr) {
		writeError(w, http.StatusConflict, capErr.Error(), "capacity_exceeded", map[string]any{
			"current_total":   capErr.CurrentTotal.InexactFloat64(),
			"requested":       capErr.Requested.InexactFloat64(),
			"resulting_total": capErr.ResultingTotal.InexactFloat64(),
			"ceiling":         capErr.Ceiling.InexactFloat64(),
		})
		return
	}

	var overlapErr *engine.AvailabilityOverlapError
	if errors.As(err, &overlapErr) {
		writeError(w, http.StatusConflict, overlapErr.Error(), "availability_overlap", map[string]any{
			"conflicting_window": toAvailabilityDTO(overlapErr.Existing),
		})
		return
	}

	// Store failures and anything unclassified stay opaque.
	writeError(w, http.StatusInternalServerError, "Internal error", "", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

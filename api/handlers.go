/*
handlers.go - HTTP API handlers for the NBOT overtime engine

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the report service and stores.

ENDPOINTS:
  Rules:
    GET    /api/rules                   Effective overtime rules

  Allocation:
    POST   /api/allocations/preview     Single-employee what-if allocation

  Reports:
    POST   /api/reports/pareto          Run a Pareto NBOT report
    GET    /api/reports/runs            Run audit log (?limit=)

  Shifts:
    GET    /api/sites                   Site directory
    POST   /api/shifts                  Ingest shift rows (JSON)
    POST   /api/shifts/import           Ingest a CSV/XLSX/XLS upload (multipart "file")

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    GET    /api/scenarios/current       Currently loaded scenario
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Clear shift data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Reports: report.Service (reads from the warehouse or SQLite)
  - Store:   shift sink, site directory, run log
  - RulesFactory: rules to JSON for GET /api/rules

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the report service or store
  4. Serialize response (rounded for display in dto.go)
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON {error, details} with HTTP status:
  - 400: Validation errors, invalid input
  - 404: No shift data for the scope and period
  - 422: Selected sites are not in the Pareto set
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/nbot-engine/factory"
	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/importer"
	"github.com/warp/nbot-engine/overtime"
	"github.com/warp/nbot-engine/report"
)

const (
	defaultRunLimit = 50
	maxUploadBytes  = 32 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API writes to: imported shifts, the site directory and
// the run log. store/sqlite implements it.
type Store interface {
	generic.ShiftSink
	generic.SiteDirectory
	generic.RunStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Reports      *report.Service
	Store        Store
	RulesFactory *factory.RulesFactory
	WeekAnchor   generic.TimePoint
	Logger       *slog.Logger

	now func() time.Time

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(reports *report.Service, store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Reports:      reports,
		Store:        store,
		RulesFactory: factory.NewRulesFactory(),
		WeekAnchor:   DefaultWeekAnchor,
		Logger:       logger,
		now:          time.Now,
	}
}

func (h *Handler) scenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// =============================================================================
// RULES
// =============================================================================

// GetRules returns the effective overtime rules.
// GET /api/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{
		Rules:   h.RulesFactory.ToJSON(h.Reports.Rules()),
		Version: "v1",
	})
}

// =============================================================================
// ALLOCATION PREVIEW
// =============================================================================

// PreviewAllocation allocates one employee's daily hours.
// POST /api/allocations/preview
func (h *Handler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.State == "" || len(req.Days) == 0 {
		writeError(w, http.StatusBadRequest, "state and days are required", nil)
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = "preview"
	}

	days := make([]overtime.Day, len(req.Days))
	for i, d := range req.Days {
		date, err := generic.ParseDate(d.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date in days[%d]", i), err)
			return
		}
		days[i] = overtime.Day{Date: date, Hours: generic.Hours(d.Hours)}
	}

	var period generic.Period
	if req.PeriodStart != "" || req.PeriodEnd != "" {
		p, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		period = p
	}

	res, err := h.Reports.Preview(report.PreviewRequest{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		State:      generic.Jurisdiction(req.State),
		Days:       days,
		Period:     period,
	})
	if err != nil {
		h.writeServiceError(w, "Preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(res))
}

// =============================================================================
// REPORTS
// =============================================================================

// RunReport runs a Pareto NBOT report.
// POST /api/reports/pareto
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := h.reportPeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	rep, err := h.Reports.Run(r.Context(), report.Request{
		Mode:              report.Mode(strings.ToLower(req.Mode)),
		CustomerCode:      generic.CustomerCode(req.CustomerCode),
		Region:            req.Region,
		LocationIDs:       toLocationIDs(req.LocationIDs),
		Period:            period,
		SelectedLocations: toLocationIDs(req.SelectedLocations),
		Trigger:           "api",
	})
	if err != nil {
		h.writeServiceError(w, "Report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rep, req.IncludeEmployees))
}

// ListReportRuns returns the run audit log, newest first.
// GET /api/reports/runs?limit=50
func (h *Handler) ListReportRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListReportRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list report runs", err)
		return
	}
	dtos := make([]ReportRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toReportRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// reportPeriod parses an explicit period or defaults to the last complete week.
func (h *Handler) reportPeriod(start, end string) (generic.Period, error) {
	if start == "" && end == "" {
		return generic.PreviousWeek(generic.DayOf(h.now()), h.WeekAnchor), nil
	}
	if end == "" {
		s, err := generic.ParseDate(start)
		if err != nil {
			return generic.Period{}, err
		}
		return generic.WeekStarting(s), nil
	}
	return parsePeriod(start, end)
}

// =============================================================================
// SHIFTS AND SITES
// =============================================================================

// ListSites returns the site directory.
// GET /api/sites
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Store.ListSites(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sites", err)
		return
	}
	dtos := make([]SiteDTO, len(sites))
	for i, s := range sites {
		dtos[i] = toSiteDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// IngestShifts stores shift rows posted as JSON. Invalid rows are reported
// and skipped; valid rows are stored.
// POST /api/shifts
func (h *Handler) IngestShifts(w http.ResponseWriter, r *http.Request) {
	var req []ShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := ImportResponse{BatchID: uuid.NewString()}
	rows := make([]generic.ShiftRow, 0, len(req))
	for i, dto := range req {
		row, err := fromShiftDTO(dto)
		if err != nil {
			resp.Rejected = append(resp.Rejected, RowErrorDTO{Line: i + 1, Error: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	h.saveRows(r.Context(), w, resp, rows)
}

// ImportShifts stores rows from an uploaded sheet.
// POST /api/shifts/import (multipart form, field "file")
func (h *Handler) ImportShifts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Logger.Error("Failed to parse multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Error("Failed to get file from form", "error", err)
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	res, err := importer.Parse(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read sheet", err)
		return
	}

	resp := ImportResponse{BatchID: uuid.NewString()}
	for _, pe := range res.Errors {
		resp.Rejected = append(resp.Rejected, RowErrorDTO{Line: pe.Line, Error: pe.Err.Error()})
	}
	h.Logger.Info("sheet parsed", "batch_id", resp.BatchID, "file", header.Filename,
		"rows", len(res.Rows), "rejected", len(res.Errors))
	h.saveRows(r.Context(), w, resp, res.Rows)
}

func (h *Handler) saveRows(ctx context.Context, w http.ResponseWriter, resp ImportResponse, rows []generic.ShiftRow) {
	if len(rows) > 0 {
		n, err := h.Store.SaveShifts(ctx, rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save shifts", err)
			return
		}
		resp.Imported = n
	}
	status := http.StatusOK
	if resp.Imported == 0 && len(resp.Rejected) > 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func fromShiftDTO(dto ShiftDTO) (generic.ShiftRow, error) {
	var row generic.ShiftRow
	if dto.EmployeeID == "" || dto.LocationID == "" || dto.State == "" {
		return row, errors.New("employee_id, location_id and state are required")
	}
	workDate, err := generic.ParseDate(dto.WorkDate)
	if err != nil {
		return row, fmt.Errorf("invalid work_date %q", dto.WorkDate)
	}
	row.ShiftRecord = generic.ShiftRecord{
		EmployeeID: generic.EmployeeID(dto.EmployeeID),
		WorkDate:   workDate,
		StartTime:  dto.StartTime,
		EndTime:    dto.EndTime,
		Hours:      dto.Hours,
	}
	row.LocationID = generic.LocationID(dto.LocationID)
	row.State = generic.NormalizeJurisdiction(dto.State)
	row.CustomerCode = generic.CustomerCode(dto.CustomerCode)
	row.CustomerName = dto.CustomerName
	row.Region = dto.Region
	row.SiteManager = dto.SiteManager
	row.EmployeeName = dto.EmployeeName
	if dto.HireDate != "" {
		hire, err := generic.ParseDate(dto.HireDate)
		if err != nil {
			return row, fmt.Errorf("invalid hire_date %q", dto.HireDate)
		}
		row.HireDate = hire
	}
	return row, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("period_start: %w", err)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("period_end: %w", err)
	}
	return generic.NewPeriod(s, e)
}

func toLocationIDs(ids []string) []generic.LocationID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]generic.LocationID, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, generic.LocationID(id))
		}
	}
	return out
}

// writeServiceError maps engine errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	var selErr *generic.SelectionError
	switch {
	case errors.As(err, &selErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: message,
			Code:  "selection_not_in_pareto",
			Details: map[string]any{
				"message":   selErr.Error(),
				"selected":  locationStrings(selErr.Selected),
				"available": locationStrings(selErr.Available),
			},
		})
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal model from the external API contract. All rounding
  for display happens here, through staffing.DisplayHours/DisplayPercent.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Rules:       RulesResponse (wraps factory.RulesJSON)
  Preview:     PreviewRequest, PreviewResponse, DayAllocationDTO, TotalsDTO
  Reports:     ReportRequest, ReportResponse, RankedDTO, SummaryDTO
  Runs:        ReportRunDTO
  Shifts:      ShiftDTO, ImportResponse, RowErrorDTO
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RulesJSON type
*/
package api

import (
	"sort"
	"time"

	"github.com/warp/nbot-engine/factory"
	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
	"github.com/warp/nbot-engine/report"
	"github.com/warp/nbot-engine/staffing"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// DayHoursDTO is one calendar day of worked hours.
type DayHoursDTO struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// PreviewRequest allocates one employee's days under a jurisdiction.
type PreviewRequest struct {
	EmployeeID  string        `json:"employee_id"`
	State       string        `json:"state"`
	PeriodStart string        `json:"period_start,omitempty"`
	PeriodEnd   string        `json:"period_end,omitempty"`
	Days        []DayHoursDTO `json:"days"`
}

// ReportRequest runs a Pareto report. Period defaults to the last complete week.
type ReportRequest struct {
	Mode              string   `json:"mode"` // customer, region, sites
	CustomerCode      string   `json:"customer_code,omitempty"`
	Region            string   `json:"region,omitempty"`
	LocationIDs       []string `json:"location_ids,omitempty"`
	PeriodStart       string   `json:"period_start,omitempty"`
	PeriodEnd         string   `json:"period_end,omitempty"`
	SelectedLocations []string `json:"selected_locations,omitempty"`
	IncludeEmployees  bool     `json:"include_employees,omitempty"`
}

// ShiftDTO is a shift row on the wire.
type ShiftDTO struct {
	EmployeeID   string  `json:"employee_id"`
	WorkDate     string  `json:"work_date"`
	StartTime    string  `json:"start,omitempty"`
	EndTime      string  `json:"end,omitempty"`
	Hours        float64 `json:"hours"`
	LocationID   string  `json:"location_id"`
	State        string  `json:"state"`
	CustomerCode string  `json:"customer_code,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
	Region       string  `json:"region,omitempty"`
	SiteManager  string  `json:"site_manager,omitempty"`
	EmployeeName string  `json:"employee_name,omitempty"`
	HireDate     string  `json:"hire_date,omitempty"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RulesResponse is the effective rule set.
type RulesResponse struct {
	Rules   factory.RulesJSON `json:"rules"`
	Version string            `json:"version"`
}

// DayAllocationDTO is one day's category split.
type DayAllocationDTO struct {
	Date       string  `json:"date"`
	Total      float64 `json:"total_hours"`
	Regular    float64 `json:"regular_hours"`
	DailyOT    float64 `json:"daily_ot_hours"`
	DoubleTime float64 `json:"double_time_hours"`
	WeeklyOT   float64 `json:"weekly_ot_hours"`
}

// TotalsDTO is an employee's category totals.
type TotalsDTO struct {
	EmployeeID      string  `json:"employee_id"`
	TotalHours      float64 `json:"total_hours"`
	Regular         float64 `json:"regular_hours"`
	DailyOT         float64 `json:"daily_ot_hours"`
	DoubleTime      float64 `json:"double_time_hours"`
	WeeklyOT        float64 `json:"weekly_ot_hours"`
	TotalOTExposure float64 `json:"total_ot_exposure"`
	DaysWorked      int     `json:"days_worked"`
}

// PreviewResponse is a single-employee allocation.
type PreviewResponse struct {
	State         string             `json:"state"`
	KnownState    bool               `json:"known_state"`
	HasDailyOT    bool               `json:"has_daily_ot"`
	HasDoubleTime bool               `json:"has_double_time"`
	Days          []DayAllocationDTO `json:"days"`
	Totals        TotalsDTO          `json:"totals"`
	OTPercentage  string             `json:"ot_percentage"`
}

// EmployeeDTO is an employee's classified result at a site.
type EmployeeDTO struct {
	TotalsDTO
	Name           string   `json:"name,omitempty"`
	HireDate       string   `json:"hire_date,omitempty"`
	AvgWeeklyHours float64  `json:"avg_weekly_hours"`
	Utilization    string   `json:"utilization"`
	Tenure         string   `json:"tenure"`
	TenureDays     int      `json:"tenure_days,omitempty"`
	Alerts         []string `json:"alerts,omitempty"`
}

// RankedDTO is a ranked site or customer.
type RankedDTO struct {
	Level                string         `json:"level"`
	Key                  string         `json:"key"`
	Name                 string         `json:"name,omitempty"`
	State                string         `json:"state,omitempty"`
	CustomerCode         string         `json:"customer_code,omitempty"`
	Region               string         `json:"region,omitempty"`
	SiteManager          string         `json:"site_manager,omitempty"`
	SiteCount            int            `json:"site_count"`
	EmployeeCount        int            `json:"employee_count"`
	EmployeesWithOT      int            `json:"employees_with_ot"`
	TotalHours           float64        `json:"total_hours"`
	Regular              float64        `json:"regular_hours"`
	DailyOT              float64        `json:"daily_ot_hours"`
	DoubleTime           float64        `json:"double_time_hours"`
	WeeklyOT             float64        `json:"weekly_ot_hours"`
	TotalOTExposure      float64        `json:"total_ot_exposure"`
	OTPercentage         float64        `json:"ot_percentage"`
	RiskCategory         string         `json:"risk_category"`
	FTENeeded            int            `json:"fte_needed"`
	Variance             int            `json:"variance"`
	CapacityStatus       string         `json:"capacity_status"`
	Rank                 int            `json:"rank"`
	CumulativePercentage float64        `json:"cumulative_percentage"`
	InPareto             bool           `json:"in_pareto_80"`
	Utilization          map[string]int `json:"utilization,omitempty"`
	Alerts               map[string]int `json:"alerts,omitempty"`
	Employees            []EmployeeDTO  `json:"employees,omitempty"`
}

// CapacityDTO is a section's capacity summary.
type CapacityDTO struct {
	Status       string   `json:"status"`
	FTEGap       int      `json:"fte_gap"`
	Understaffed []string `json:"understaffed_sites"`
	Overstaffed  []string `json:"overstaffed_sites"`
}

// SummaryDTO is a report section's metrics.
type SummaryDTO struct {
	Sites           int         `json:"sites"`
	Employees       int         `json:"employees"`
	EmployeesWithOT int         `json:"employees_with_ot"`
	TotalHours      float64     `json:"total_hours"`
	Regular         float64     `json:"regular_hours"`
	DailyOT         float64     `json:"daily_ot_hours"`
	DoubleTime      float64     `json:"double_time_hours"`
	WeeklyOT        float64     `json:"weekly_ot_hours"`
	TotalOT         float64     `json:"total_ot_hours"`
	OTPercentage    float64     `json:"ot_percentage"`
	RiskCategory    string      `json:"risk_category"`
	FTENeeded       int         `json:"fte_needed"`
	Variance        int         `json:"variance"`
	AvgHoursPerEmp  float64     `json:"avg_hours_per_employee"`
	ShareOfTotalOT  float64     `json:"share_of_total_ot"`
	Capacity        CapacityDTO `json:"capacity"`
}

// ReportResponse is a computed Pareto report.
type ReportResponse struct {
	RunID                string      `json:"run_id"`
	Mode                 string      `json:"mode"`
	Scope                string      `json:"scope"`
	PeriodStart          string      `json:"period_start"`
	PeriodEnd            string      `json:"period_end"`
	GeneratedAt          string      `json:"generated_at"`
	Sites                []RankedDTO `json:"sites"`
	ParetoSites          []string    `json:"pareto_sites"`
	SelectedSites        []string    `json:"selected_sites"`
	SelectionRequired    bool        `json:"selection_required"`
	Customers            []RankedDTO `json:"customers,omitempty"`
	Overall              SummaryDTO  `json:"overall"`
	Pareto               SummaryDTO  `json:"pareto"`
	Selected             SummaryDTO  `json:"selected"`
	ShiftsNormalized     int         `json:"shifts_normalized"`
	ShiftsSplit          int         `json:"shifts_split"`
	TimeFallbacks        int         `json:"time_fallbacks"`
	RecordsRejected      int         `json:"records_rejected"`
	UnknownJurisdictions []string    `json:"unknown_jurisdictions,omitempty"`
}

// ReportRunDTO is an audit log entry.
type ReportRunDTO struct {
	ID          string  `json:"id"`
	Mode        string  `json:"mode"`
	Scope       string  `json:"scope"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	SiteCount   int     `json:"site_count"`
	ParetoSites int     `json:"pareto_sites"`
	TotalHours  float64 `json:"total_hours"`
	TotalOT     float64 `json:"total_ot_hours"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
	Trigger     string  `json:"trigger"`
	StartedAt   string  `json:"started_at"`
	DurationMs  int64   `json:"duration_ms"`
}

// SiteDTO is a site directory entry.
type SiteDTO struct {
	LocationID   string `json:"location_id"`
	State        string `json:"state"`
	CustomerCode string `json:"customer_code,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Region       string `json:"region,omitempty"`
	SiteManager  string `json:"site_manager,omitempty"`
}

// RowErrorDTO is a rejected import row.
type RowErrorDTO struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportResponse reports an ingest.
type ImportResponse struct {
	BatchID  string        `json:"batch_id"`
	Imported int           `json:"imported"`
	Rejected []RowErrorDTO `json:"rejected,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Mode        string `json:"mode"`
	Scope       string `json:"scope"`
	PeriodStart string `json:"period_start"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func hours(a generic.Amount) float64 { return staffing.DisplayHours(a) }

func toDayDTOs(days []overtime.PerDayAllocation) []DayAllocationDTO {
	dtos := make([]DayAllocationDTO, len(days))
	for i, d := range days {
		dtos[i] = DayAllocationDTO{
			Date:       d.Date.String(),
			Total:      hours(d.Total),
			Regular:    hours(d.Regular),
			DailyOT:    hours(d.DailyOT),
			DoubleTime: hours(d.DoubleTime),
			WeeklyOT:   hours(d.WeeklyOT),
		}
	}
	return dtos
}

func toTotalsDTO(t overtime.EmployeeWeeklyTotals) TotalsDTO {
	return TotalsDTO{
		EmployeeID:      string(t.EmployeeID),
		TotalHours:      hours(t.TotalHours),
		Regular:         hours(t.Regular),
		DailyOT:         hours(t.DailyOT),
		DoubleTime:      hours(t.DoubleTime),
		WeeklyOT:        hours(t.WeeklyOT),
		TotalOTExposure: hours(t.TotalOTExposure),
		DaysWorked:      t.DaysWorked,
	}
}

func toPreviewResponse(res report.PreviewResult) PreviewResponse {
	return PreviewResponse{
		State:         string(res.State),
		KnownState:    res.Known,
		HasDailyOT:    res.RuleSet.HasDailyOT,
		HasDoubleTime: res.RuleSet.HasDoubleTime,
		Days:          toDayDTOs(res.Allocation.Days),
		Totals:        toTotalsDTO(res.Allocation.Totals),
		OTPercentage:  res.OTPercent,
	}
}

func toEmployeeDTO(e staffing.EmployeeResult) EmployeeDTO {
	dto := EmployeeDTO{
		TotalsDTO:      toTotalsDTO(e.Totals),
		Name:           e.Name,
		AvgWeeklyHours: hours(e.AvgWeeklyHours),
		Utilization:    string(e.Utilization),
		Tenure:         string(e.Tenure),
		TenureDays:     e.TenureDays,
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.String()
	}
	for _, a := range e.Alerts {
		dto.Alerts = append(dto.Alerts, string(a))
	}
	return dto
}

func toRankedDTO(r staffing.Ranked, withEmployees bool) RankedDTO {
	dto := RankedDTO{
		Level:                string(r.Level),
		Key:                  r.Key,
		Name:                 r.Name,
		State:                string(r.State),
		CustomerCode:         string(r.CustomerCode),
		Region:               r.Region,
		SiteManager:          r.SiteManager,
		SiteCount:            r.SiteCount,
		EmployeeCount:        r.EmployeeCount,
		EmployeesWithOT:      r.EmployeesWithOT,
		TotalHours:           hours(r.TotalHours),
		Regular:              hours(r.Regular),
		DailyOT:              hours(r.DailyOT),
		DoubleTime:           hours(r.DoubleTime),
		WeeklyOT:             hours(r.WeeklyOT),
		TotalOTExposure:      hours(r.TotalOTExposure),
		OTPercentage:         staffing.DisplayPercent(r.OTPercentage),
		RiskCategory:         string(r.RiskCategory),
		FTENeeded:            r.FTENeeded,
		Variance:             r.Variance,
		CapacityStatus:       string(r.CapacityStatus),
		Rank:                 r.Rank,
		CumulativePercentage: staffing.DisplayPercent(r.CumulativePercentage),
		InPareto:             r.InPareto,
	}
	if len(r.Utilization) > 0 {
		dto.Utilization = make(map[string]int, len(r.Utilization))
		for k, v := range r.Utilization {
			dto.Utilization[string(k)] = v
		}
	}
	if len(r.Alerts) > 0 {
		dto.Alerts = make(map[string]int, len(r.Alerts))
		for k, v := range r.Alerts {
			dto.Alerts[string(k)] = v
		}
	}
	if withEmployees {
		dto.Employees = make([]EmployeeDTO, len(r.Employees))
		for i, e := range r.Employees {
			dto.Employees[i] = toEmployeeDTO(e)
		}
	}
	return dto
}

func toRankedDTOs(items []staffing.Ranked, withEmployees bool) []RankedDTO {
	dtos := make([]RankedDTO, len(items))
	for i, r := range items {
		dtos[i] = toRankedDTO(r, withEmployees)
	}
	return dtos
}

func toSummaryDTO(s staffing.Summary) SummaryDTO {
	return SummaryDTO{
		Sites:           s.Sites,
		Employees:       s.Employees,
		EmployeesWithOT: s.EmployeesWithOT,
		TotalHours:      hours(s.TotalHours),
		Regular:         hours(s.Regular),
		DailyOT:         hours(s.DailyOT),
		DoubleTime:      hours(s.DoubleTime),
		WeeklyOT:        hours(s.WeeklyOT),
		TotalOT:         hours(s.TotalOT),
		OTPercentage:    staffing.DisplayPercent(s.OTPercentage),
		RiskCategory:    string(s.RiskCategory),
		FTENeeded:       s.FTENeeded,
		Variance:        s.Variance,
		AvgHoursPerEmp:  hours(s.AvgHoursPerEmp),
		ShareOfTotalOT:  staffing.DisplayPercent(s.ShareOfTotalOT),
		Capacity: CapacityDTO{
			Status:       string(s.Capacity.Status),
			FTEGap:       s.Capacity.FTEGap,
			Understaffed: locationStrings(s.Capacity.Understaffed),
			Overstaffed:  locationStrings(s.Capacity.Overstaffed),
		},
	}
}

func toReportResponse(rep *report.Report, withEmployees bool) ReportResponse {
	resp := ReportResponse{
		RunID:             rep.RunID,
		Mode:              string(rep.Mode),
		Scope:             rep.Scope,
		PeriodStart:       rep.Period.Start.String(),
		PeriodEnd:         rep.Period.End.String(),
		GeneratedAt:       rep.GeneratedAt.UTC().Format(time.RFC3339),
		Sites:             toRankedDTOs(rep.Sites, withEmployees),
		ParetoSites:       rankedKeys(rep.Pareto),
		SelectedSites:     rankedKeys(rep.Selected),
		SelectionRequired: rep.SelectionRequired,
		Overall:           toSummaryDTO(rep.Overall),
		Pareto:            toSummaryDTO(rep.ParetoSummary),
		Selected:          toSummaryDTO(rep.SelectedSummary),
		ShiftsNormalized:  rep.Normalization.Shifts,
		ShiftsSplit:       rep.Normalization.Split,
		TimeFallbacks:     rep.Normalization.Fallbacks,
		RecordsRejected:   rep.Normalization.RejectedTotal(),
	}
	if len(rep.Customers) > 0 {
		resp.Customers = toRankedDTOs(rep.Customers, false)
	}
	for _, j := range rep.UnknownJurisdictions {
		resp.UnknownJurisdictions = append(resp.UnknownJurisdictions, string(j))
	}
	return resp
}

func toReportRunDTO(run generic.ReportRun) ReportRunDTO {
	return ReportRunDTO{
		ID:          run.ID,
		Mode:        run.Mode,
		Scope:       run.Scope,
		PeriodStart: run.Period.Start.String(),
		PeriodEnd:   run.Period.End.String(),
		SiteCount:   run.SiteCount,
		ParetoSites: run.ParetoSites,
		TotalHours:  hours(run.TotalHours),
		TotalOT:     hours(run.TotalOT),
		Status:      string(run.Status),
		Error:       run.Error,
		Trigger:     run.Trigger,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		DurationMs:  run.Duration.Milliseconds(),
	}
}

func toSiteDTO(s generic.Site) SiteDTO {
	return SiteDTO{
		LocationID:   string(s.LocationID),
		State:        string(s.State),
		CustomerCode: string(s.CustomerCode),
		CustomerName: s.CustomerName,
		Region:       s.Region,
		SiteManager:  s.SiteManager,
	}
}

func rankedKeys(items []staffing.Ranked) []string {
	keys := make([]string, len(items))
	for i, r := range items {
		keys[i] = r.Key
	}
	return keys
}

func locationStrings(ids []generic.LocationID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	sort.Strings(out)
	return out
}

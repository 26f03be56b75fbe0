/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built shift datasets that exercise specific overtime rules.
	Each scenario replaces the shift data with rows for the week of
	2025-01-06 (Monday) and names the report request that shows it off.

AVAILABLE SCENARIOS:

	ca-seventh-day:    California daily OT, double time and the seventh-day rule
	texas-weekly:      Weekly-only jurisdiction, OT from the 40h threshold alone
	overnight:         Shifts crossing midnight split across calendar days
	multi-site-pareto: Ten sites where a handful carry most of the OT

HOW SCENARIOS WORK:
 1. Reset shift data (the run log is kept)
 2. Generate rows for the scenario's customer/region
 3. Save through the ShiftSink, exactly like an import

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "ca-seventh-day"}

	POST /api/reports/pareto
	{"mode": "customer", "customer_code": "SUNCOAST", "period_start": "2025-01-06", "period_end": "2025-01-12"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and report scope
 2. Create a row builder: xxxRows() []generic.ShiftRow
 3. Add it to scenarioRows

NOTE:

	Scenarios reset shift data. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/metrics"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarioWeek = generic.NewTimePoint(2025, time.January, 6)

var scenarios = []ScenarioDTO{
	{
		ID:          "ca-seventh-day",
		Name:        "California Seventh Day",
		Description: "A guard working seven straight 10h days: daily OT, double time on day seven, weekly OT moved off the last days",
		Mode:        "customer",
		Scope:       "SUNCOAST",
		PeriodStart: scenarioWeek.String(),
	},
	{
		ID:          "texas-weekly",
		Name:        "Texas Weekly Only",
		Description: "Long shifts in a weekly-only state: no daily OT, everything over 40h is weekly OT",
		Mode:        "customer",
		Scope:       "LONESTAR",
		PeriodStart: scenarioWeek.String(),
	},
	{
		ID:          "overnight",
		Name:        "Overnight Shifts",
		Description: "10:00p to 06:00a shifts in Nevada; hours after midnight count toward the next day",
		Mode:        "customer",
		Scope:       "NIGHTOWL",
		PeriodStart: scenarioWeek.String(),
	},
	{
		ID:          "multi-site-pareto",
		Name:        "Multi-Site Pareto",
		Description: "Ten sites across CA, NV and TX where two sites carry most of the region's OT",
		Mode:        "region",
		Scope:       "Central",
		PeriodStart: scenarioWeek.String(),
	},
}

var scenarioRows = map[string]func() []generic.ShiftRow{
	"ca-seventh-day":    caSeventhDayRows,
	"texas-weekly":      texasWeeklyRows,
	"overnight":         overnightRows,
	"multi-site-pareto": multiSiteParetoRows,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	build, ok := scenarioRows[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	n, err := h.loadScenario(r.Context(), req.ScenarioID, build())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "scenario": req.ScenarioID, "shifts": n})
}

// ResetData clears shift data.
// POST /api/scenarios/reset
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}
	h.setScenario("")
	metrics.ResetReportGauges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadScenario(ctx context.Context, id string, rows []generic.ShiftRow) (int, error) {
	if err := h.Store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	h.setScenario("")
	metrics.ResetReportGauges()

	n, err := h.Store.SaveShifts(ctx, rows)
	if err != nil {
		return 0, err
	}
	h.setScenario(id)
	h.Logger.Info("scenario loaded", "scenario", id, "shifts", n)
	return n, nil
}

// =============================================================================
// ROW BUILDERS
// =============================================================================

type siteSpec struct {
	location generic.LocationID
	state    generic.Jurisdiction
	customer generic.CustomerCode
	name     string
	region   string
	manager  string
}

func (s siteSpec) shift(emp string, day int, start, end string, hours float64) generic.ShiftRow {
	return generic.ShiftRow{
		ShiftRecord: generic.ShiftRecord{
			EmployeeID: generic.EmployeeID(emp),
			WorkDate:   scenarioWeek.AddDays(day),
			StartTime:  start,
			EndTime:    end,
			Hours:      hours,
		},
		LocationID:   s.location,
		State:        s.state,
		CustomerCode: s.customer,
		CustomerName: s.name,
		Region:       s.region,
		SiteManager:  s.manager,
	}
}

// weekOf repeats one daily shift for the given days of the scenario week.
func (s siteSpec) weekOf(emp string, days int, start, end string, hours float64, hire generic.TimePoint, name string) []generic.ShiftRow {
	rows := make([]generic.ShiftRow, 0, days)
	for d := 0; d < days; d++ {
		row := s.shift(emp, d, start, end, hours)
		row.HireDate = hire
		row.EmployeeName = name
		rows = append(rows, row)
	}
	return rows
}

func caSeventhDayRows() []generic.ShiftRow {
	la := siteSpec{"LA-100", "CA", "SUNCOAST", "Suncoast Properties", "West", "R. Alvarez"}
	sd := siteSpec{"SD-210", "CA", "SUNCOAST", "Suncoast Properties", "West", "J. Chen"}

	var rows []generic.ShiftRow
	rows = append(rows, la.weekOf("SC-001", 7, "06:00a", "04:00p", 10, scenarioWeek.AddDays(-60), "Dana Ortiz")...)
	rows = append(rows, la.weekOf("SC-002", 5, "06:00a", "02:00p", 8, scenarioWeek.AddDays(-900), "Lee Park")...)
	rows = append(rows, la.weekOf("SC-003", 5, "02:00p", "10:00p", 8, scenarioWeek.AddDays(-400), "Sam Rivera")...)
	// A single 14h double.
	rows = append(rows, sd.shift("SC-004", 2, "06:00a", "08:00p", 14))
	rows = append(rows, sd.weekOf("SC-005", 4, "06:00a", "02:00p", 8, generic.TimePoint{}, "Jo Kim")...)
	return rows
}

func texasWeeklyRows() []generic.ShiftRow {
	dal := siteSpec{"DAL-300", "TX", "LONESTAR", "Lone Star Logistics", "South", "M. Grant"}
	hou := siteSpec{"HOU-310", "TX", "LONESTAR", "Lone Star Logistics", "South", "P. Nguyen"}

	var rows []generic.ShiftRow
	rows = append(rows, dal.weekOf("LS-001", 6, "07:00a", "07:00p", 12, scenarioWeek.AddDays(-30), "Chris Hall")...)
	rows = append(rows, dal.weekOf("LS-002", 5, "07:00a", "05:00p", 10, scenarioWeek.AddDays(-700), "Ana Silva")...)
	rows = append(rows, hou.weekOf("LS-003", 5, "06:00a", "02:00p", 8, scenarioWeek.AddDays(-200), "Ray Brooks")...)
	rows = append(rows, hou.weekOf("LS-004", 4, "06:00a", "02:00p", 8, scenarioWeek.AddDays(-1200), "Kai Moore")...)
	return rows
}

func overnightRows() []generic.ShiftRow {
	lv := siteSpec{"LV-400", "NV", "NIGHTOWL", "Night Owl Casinos", "West", "T. Reyes"}

	var rows []generic.ShiftRow
	// 10:00p-06:00a: 2h land on the work date, 6h on the next day.
	rows = append(rows, lv.weekOf("NO-001", 7, "10:00p", "06:00a", 8, scenarioWeek.AddDays(-45), "Max Ward")...)
	// 6:00p-06:00a: 6h before midnight, 6h after; 12h shifts back to back.
	rows = append(rows, lv.weekOf("NO-002", 4, "6:00 PM", "6:00 AM", 12, scenarioWeek.AddDays(-500), "Eve Stone")...)
	// Unparsable times fall back to whole-day attribution.
	rows = append(rows, lv.shift("NO-003", 3, "late", "early", 9))
	return rows
}

func multiSiteParetoRows() []generic.ShiftRow {
	type load struct {
		site      siteSpec
		employees int
		hours     float64
		days      int
	}
	loads := []load{
		{siteSpec{"SAC-501", "CA", "ATLAS", "Atlas Security", "Central", "B. Young"}, 4, 12, 6},
		{siteSpec{"FRE-502", "CA", "ATLAS", "Atlas Security", "Central", "B. Young"}, 3, 11, 6},
		{siteSpec{"RNO-503", "NV", "ATLAS", "Atlas Security", "Central", "C. Diaz"}, 3, 10, 5},
		{siteSpec{"AUS-504", "TX", "ATLAS", "Atlas Security", "Central", "C. Diaz"}, 2, 9, 5},
		{siteSpec{"SAT-505", "TX", "ORBIT", "Orbit Facilities", "Central", "D. Fox"}, 2, 9, 5},
		{siteSpec{"OAK-506", "CA", "ORBIT", "Orbit Facilities", "Central", "D. Fox"}, 3, 8, 5},
		{siteSpec{"SJC-507", "CA", "ORBIT", "Orbit Facilities", "Central", "E. Park"}, 2, 8, 5},
		{siteSpec{"ELP-508", "TX", "ORBIT", "Orbit Facilities", "Central", "E. Park"}, 2, 8, 5},
		{siteSpec{"HEN-509", "NV", "ATLAS", "Atlas Security", "Central", "F. Lowe"}, 1, 8, 4},
		{siteSpec{"BAK-510", "CA", "ATLAS", "Atlas Security", "Central", "F. Lowe"}, 1, 6, 5},
	}

	var rows []generic.ShiftRow
	for _, l := range loads {
		for e := 1; e <= l.employees; e++ {
			emp := fmt.Sprintf("%s-E%d", l.site.location, e)
			hire := scenarioWeek.AddDays(-30 * e * e)
			rows = append(rows, l.site.weekOf(emp, l.days, "06:00", clockAfter(6, l.hours), l.hours, hire, "")...)
		}
	}
	return rows
}

// clockAfter renders the 24-hour wall clock hours after startHour.
func clockAfter(startHour int, hours float64) string {
	minutes := (startHour*60 + int(hours*60)) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

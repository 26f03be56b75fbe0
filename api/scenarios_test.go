/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario loads its rows and that the report it names
	shows the overtime behavior the scenario is meant to demonstrate.
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/generic"
)

func TestScenario_AllScenariosLoadAndReport(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			api := newTestAPI(t)

			// GIVEN: The scenario is loaded
			api.loadScenario(t, s.ID)

			// WHEN: Running the report the scenario describes
			rec := api.do(t, http.MethodPost, "/api/reports/pareto", weekReport(s.Mode, s.Scope))

			// THEN: The report has OT and a non-empty Pareto set
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[ReportResponse](t, rec)
			assert.Positive(t, resp.Overall.TotalOT)
			assert.NotEmpty(t, resp.ParetoSites)
		})
	}
}

func TestScenario_Overnight(t *testing.T) {
	api := newTestAPI(t)
	api.loadScenario(t, "overnight")

	rec := api.do(t, http.MethodPost, "/api/reports/pareto", weekReport("customer", "NIGHTOWL"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ReportResponse](t, rec)

	// 7 overnight 8h shifts and 4 overnight 12h shifts cross midnight;
	// the "late"/"early" shift is attributed whole to its work date.
	assert.Equal(t, 12, resp.ShiftsNormalized)
	assert.Equal(t, 11, resp.ShiftsSplit)
	assert.Equal(t, 1, resp.TimeFallbacks)
	assert.Positive(t, resp.Overall.DailyOT)
	assert.Zero(t, resp.Overall.DoubleTime, "double time is California only")
}

func TestScenario_LoadReplacesPreviousShifts(t *testing.T) {
	api := newTestAPI(t)

	// GIVEN: One scenario loaded
	api.loadScenario(t, "texas-weekly")

	// WHEN: Loading another
	api.loadScenario(t, "ca-seventh-day")

	// THEN: Only the second scenario's sites remain
	sites := decode[[]SiteDTO](t, api.do(t, http.MethodGet, "/api/sites", nil))
	var ids []string
	for _, s := range sites {
		ids = append(ids, s.LocationID)
	}
	assert.ElementsMatch(t, []string{"LA-100", "SD-210"}, ids)

	rec := api.do(t, http.MethodPost, "/api/reports/pareto", weekReport("customer", "LONESTAR"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenario_CurrentAndReset(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	api.loadScenario(t, "overnight")
	current := decode[ScenarioDTO](t, api.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "overnight", current.ID)

	// GIVEN: A report recorded before the reset
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/reports/pareto", weekReport("customer", "NIGHTOWL")).Code)

	// WHEN: Resetting
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/scenarios/reset", nil).Code)

	// THEN: Shifts are gone, the run log is kept
	assert.Empty(t, api.handler.scenario())
	sites, err := api.store.ListSites(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sites)
	runs, err := api.store.ListReportRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestScenario_ListAndUnknown(t *testing.T) {
	api := newTestAPI(t)

	list := decode[[]ScenarioDTO](t, api.do(t, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(scenarioRows))
	for _, s := range list {
		assert.Contains(t, scenarioRows, s.ID)
	}

	rec := api.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClockAfter(t *testing.T) {
	assert.Equal(t, "18:00", clockAfter(6, 12))
	assert.Equal(t, "17:30", clockAfter(6, 11.5))
	assert.Equal(t, "02:00", clockAfter(18, 8))
}

func TestScenarioRows_ParseableTimes(t *testing.T) {
	// Every scenario row except the deliberate fallback has parseable clock times.
	for id, build := range scenarioRows {
		for _, row := range build() {
			if row.EmployeeID == "NO-003" {
				continue
			}
			_, errS := generic.ParseClock(row.StartTime)
			_, errE := generic.ParseClock(row.EndTime)
			assert.NoError(t, errS, "%s %s start %q", id, row.EmployeeID, row.StartTime)
			assert.NoError(t, errE, "%s %s end %q", id, row.EmployeeID, row.EndTime)
		}
	}
}

package sqlite_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func row(emp string, day int, hours float64, loc, customer, region string) generic.ShiftRow {
	return generic.ShiftRow{
		ShiftRecord: generic.ShiftRecord{
			EmployeeID: generic.EmployeeID(emp),
			WorkDate:   generic.NewTimePoint(2025, time.January, 6).AddDays(day),
			StartTime:  "06:00a",
			EndTime:    "02:00p",
			Hours:      hours,
		},
		LocationID:   generic.LocationID(loc),
		State:        "ca",
		CustomerCode: generic.CustomerCode(customer),
		CustomerName: customer + " Inc",
		Region:       region,
		SiteManager:  "Kim",
	}
}

func TestSaveAndLoadShifts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	hire := row("E1", 0, 8, "LA-1", "ACME", "West")
	hire.HireDate = generic.NewTimePoint(2024, time.October, 1)
	hire.EmployeeName = "Pat Doe"

	n, err := s.SaveShifts(ctx, []generic.ShiftRow{
		hire,
		row("E1", 1, 9.5, "LA-1", "ACME", "West"),
		row("E2", 0, 8, "SF-1", "ACME", "West"),
		row("E3", 0, 8, "NYC-1", "BETA", "East"),
		row("E1", 10, 8, "LA-1", "ACME", "West"), // outside the week
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	week := generic.WeekStarting(generic.NewTimePoint(2025, time.January, 6))

	rows, err := s.LoadShifts(ctx, generic.Scope{CustomerCode: "ACME"}, week)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, generic.EmployeeID("E1"), rows[0].EmployeeID)
	assert.Equal(t, generic.Jurisdiction("CA"), rows[0].State)
	assert.Equal(t, "Pat Doe", rows[0].EmployeeName)
	assert.True(t, rows[0].HireDate.Equal(generic.NewTimePoint(2024, time.October, 1)))
	assert.Equal(t, 9.5, rows[2].Hours)

	rows, err = s.LoadShifts(ctx, generic.Scope{Region: "East"}, week)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, generic.LocationID("NYC-1"), rows[0].LocationID)

	rows, err = s.LoadShifts(ctx, generic.Scope{LocationIDs: []generic.LocationID{"SF-1", "NYC-1"}}, week)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = s.LoadShifts(ctx, generic.Scope{}, week)
	assert.ErrorIs(t, err, generic.ErrScopeRequired)
}

func TestSaveShifts_ReimportReplaces(t *testing.T) {
	// GIVEN: A shift already imported
	// WHEN: The same shift is imported again with corrected hours
	// THEN: The row is replaced, not duplicated

	s := newStore(t)
	ctx := context.Background()
	week := generic.WeekStarting(generic.NewTimePoint(2025, time.January, 6))

	_, err := s.SaveShifts(ctx, []generic.ShiftRow{row("E1", 0, 8, "LA-1", "ACME", "West")})
	require.NoError(t, err)
	_, err = s.SaveShifts(ctx, []generic.ShiftRow{row("E1", 0, 10, "LA-1", "ACME", "West")})
	require.NoError(t, err)

	rows, err := s.LoadShifts(ctx, generic.Scope{CustomerCode: "ACME"}, week)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].Hours)
}

func TestSaveShifts_HoursOnlyRowsOnSameDayAccumulate(t *testing.T) {
	// GIVEN: Two rows for one employee, site and day with no clock times
	// WHEN: They are imported together, then the same sheet is imported again
	// THEN: Both rows are kept both times and hours add up to 11

	s := newStore(t)
	ctx := context.Background()
	week := generic.WeekStarting(generic.NewTimePoint(2025, time.January, 6))

	hoursOnly := func(h float64) generic.ShiftRow {
		r := row("E1", 0, h, "LA-1", "ACME", "West")
		r.StartTime, r.EndTime = "", ""
		return r
	}
	sheet := []generic.ShiftRow{hoursOnly(6), hoursOnly(5)}

	for i := 0; i < 2; i++ {
		n, err := s.SaveShifts(ctx, sheet)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		rows, err := s.LoadShifts(ctx, generic.Scope{CustomerCode: "ACME"}, week)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 11.0, rows[0].Hours+rows[1].Hours)
	}
}

func TestSaveShifts_KeepsNonFiniteHours(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	week := generic.WeekStarting(generic.NewTimePoint(2025, time.January, 6))

	_, err := s.SaveShifts(ctx, []generic.ShiftRow{row("E1", 0, math.Inf(1), "LA-1", "ACME", "West")})
	require.NoError(t, err)

	rows, err := s.LoadShifts(ctx, generic.Scope{CustomerCode: "ACME"}, week)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsInf(rows[0].Hours, 1))
}

func TestListSitesAndReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SaveShifts(ctx, []generic.ShiftRow{
		row("E1", 0, 8, "SF-1", "ACME", "West"),
		row("E2", 0, 8, "LA-1", "ACME", "West"),
		row("E3", 1, 8, "LA-1", "ACME", "West"),
	})
	require.NoError(t, err)

	sites, err := s.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, generic.LocationID("LA-1"), sites[0].LocationID)
	assert.Equal(t, generic.Jurisdiction("CA"), sites[0].State)
	assert.Equal(t, "Kim", sites[0].SiteManager)

	require.NoError(t, s.Reset(ctx))
	sites, err = s.ListSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestReportRuns(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 13, 6, 0, 0, 0, time.UTC)
	week := generic.WeekStarting(generic.NewTimePoint(2025, time.January, 6))

	for i, status := range []generic.RunStatus{generic.RunSucceeded, generic.RunFailed, generic.RunSucceeded} {
		err := s.SaveReportRun(ctx, generic.ReportRun{
			ID:          string(rune('a' + i)),
			Mode:        "region",
			Scope:       "region:West",
			Period:      week,
			SiteCount:   4,
			ParetoSites: 2,
			TotalHours:  generic.Hours(320),
			TotalOT:     generic.Hours(12.5),
			Status:      status,
			Trigger:     "scheduler",
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			Duration:    1500 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	runs, err := s.ListReportRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID, "newest first")
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, generic.RunFailed, runs[1].Status)
	assert.True(t, generic.Hours(12.5).Equal(runs[0].TotalOT))
	assert.True(t, runs[0].Period.Start.Equal(week.Start))
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.True(t, base.Add(2*time.Hour).Equal(runs[0].StartedAt))

	all, err := s.ListReportRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

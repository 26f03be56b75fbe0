package overtime_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func hrs(n float64) generic.Amount {
	return generic.Hours(n)
}

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

// week builds consecutive days starting Monday 2025-01-06.
func week(hours ...float64) []overtime.Day {
	start := date(2025, time.January, 6)
	days := make([]overtime.Day, len(hours))
	for i, h := range hours {
		days[i] = overtime.Day{Date: start.AddDays(i), Hours: hrs(h)}
	}
	return days
}

func assertHours(t *testing.T, want float64, got generic.Amount, label ...string) {
	t.Helper()
	assert.True(t, hrs(want).Equal(got), "%v: want %v hours, got %s", label, want, got.Value.String())
}

func assertDay(t *testing.T, p overtime.PerDayAllocation, regular, dailyOT, doubleTime, weeklyOT float64) {
	t.Helper()
	assertHours(t, regular, p.Regular, "regular "+p.Date.String())
	assertHours(t, dailyOT, p.DailyOT, "daily OT "+p.Date.String())
	assertHours(t, doubleTime, p.DoubleTime, "double time "+p.Date.String())
	assertHours(t, weeklyOT, p.WeeklyOT, "weekly OT "+p.Date.String())
}

func newAllocator() (*overtime.Allocator, overtime.Rules) {
	rules := overtime.DefaultRules()
	return overtime.NewAllocator(rules), rules
}

// =============================================================================
// CONSERVATION
// =============================================================================

func TestAllocateWeek_CategoriesSumToHours(t *testing.T) {
	a, rules := newAllocator()
	inputs := [][]float64{
		{8, 8, 8, 8, 12},
		{14, 0, 9.5, 13.25, 7, 11, 16},
		{8, 8, 8, 8, 8, 8, 10},
		{0, 0, 0},
		{23.75},
		{10, 10, 10, 10, 10, 10, 10},
	}
	for _, state := range []generic.Jurisdiction{"TX", "NV", "CA"} {
		for _, in := range inputs {
			out, err := a.AllocateWeek(week(in...), rules.Classify(state))
			require.NoError(t, err)
			require.Len(t, out, len(in))
			for i, p := range out {
				assert.NoError(t, p.Check())
				assertHours(t, in[i], p.Regular.Add(p.DailyOT).Add(p.DoubleTime).Add(p.WeeklyOT), fmt.Sprintf("%s sum on day %d", state, i))
				assert.False(t, p.Regular.IsNegative())
				assert.False(t, p.WeeklyOT.IsNegative())
			}
		}
	}
}

// =============================================================================
// WEEKLY THRESHOLD
// =============================================================================

func TestAllocateWeek_AtOrBelowForty_NoWeeklyOT(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(8, 8, 8, 8, 8), rules.Classify("TX"))
	require.NoError(t, err)
	for _, p := range out {
		assert.True(t, p.WeeklyOT.IsZero())
	}
}

func TestAllocateWeek_OverFortyByX_WeeklyOTEqualsX(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(9, 9, 9, 9, 9.5), rules.Classify("FL"))
	require.NoError(t, err)

	totals := overtime.SumAllocations("emp-1", out)
	assertHours(t, 5.5, totals.WeeklyOT)
	assertHours(t, 5.5, totals.TotalOTExposure)
}

func TestAllocateWeek_TexasEndToEnd(t *testing.T) {
	// GIVEN: Mon-Thu 8h, Fri 12h in Texas (weekly-only)
	// WHEN: Allocating the week
	// THEN: 44h total, the 4 over-40 hours all land on Friday

	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(8, 8, 8, 8, 12), rules.Classify("TX"))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assertDay(t, out[i], 8, 0, 0, 0)
	}
	assertDay(t, out[4], 8, 0, 0, 4)
}

// =============================================================================
// DAILY OT / DOUBLE TIME
// =============================================================================

func TestAllocateWeek_NevadaTenHourDay(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(10), rules.Classify("NV"))
	require.NoError(t, err)
	assertDay(t, out[0], 8, 2, 0, 0)
}

func TestAllocateWeek_NevadaLongDay_DailyOTUncapped(t *testing.T) {
	// Daily-OT-only states have no double time, so nothing caps daily OT.
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(14), rules.Classify("NV"))
	require.NoError(t, err)
	assertDay(t, out[0], 8, 6, 0, 0)
}

func TestAllocateWeek_CaliforniaDoubleTimeBoundary(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(14), rules.Classify("CA"))
	require.NoError(t, err)
	assertDay(t, out[0], 8, 4, 2, 0)
}

func TestAllocateWeek_CaliforniaExactlyTwelve(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(12), rules.Classify("CA"))
	require.NoError(t, err)
	assertDay(t, out[0], 8, 4, 0, 0)
}

func TestAllocateWeek_TexasLongDay_NoDailyOT(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(14), rules.Classify("TX"))
	require.NoError(t, err)
	assertDay(t, out[0], 14, 0, 0, 0)
}

// =============================================================================
// SEVENTH CONSECUTIVE DAY
// =============================================================================

func TestAllocateWeek_CaliforniaSeventhConsecutiveDay(t *testing.T) {
	// GIVEN: CA employee, days 1-6 at 8h, day 7 at 10h (58h total)
	// WHEN: Allocating the week
	// THEN: Day 7 is 8 daily OT + 2 double time with no regular hours;
	//       the 18 over-40 hours come off days 6, 5 and 4 in that order

	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(8, 8, 8, 8, 8, 8, 10), rules.Classify("CA"))
	require.NoError(t, err)

	assertDay(t, out[6], 0, 8, 2, 0)
	assertDay(t, out[5], 0, 0, 0, 8)
	assertDay(t, out[4], 0, 0, 0, 8)
	assertDay(t, out[3], 6, 0, 0, 2)
	for i := 0; i < 3; i++ {
		assertDay(t, out[i], 8, 0, 0, 0)
	}

	totals := overtime.SumAllocations("emp-1", out)
	assertHours(t, 18, totals.WeeklyOT)
	assertHours(t, 58, totals.TotalHours)
}

func TestAllocateWeek_SeventhDay_RequiresUnbrokenRun(t *testing.T) {
	// A zero-hour day inside the first six breaks the run.
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(8, 8, 0, 8, 8, 8, 10), rules.Classify("CA"))
	require.NoError(t, err)
	assertDay(t, out[6], 0, 2, 0, 8)
}

func TestAllocateWeek_SeventhDay_NeedsSevenDates(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(6, 6, 6, 6, 6, 10), rules.Classify("CA"))
	require.NoError(t, err)
	assertDay(t, out[5], 8, 2, 0, 0)
}

func TestAllocateWeek_SeventhDay_NotAppliedWithoutDoubleTime(t *testing.T) {
	a, rules := newAllocator()

	out, err := a.AllocateWeek(week(5, 5, 5, 5, 5, 5, 10), rules.Classify("AK"))
	require.NoError(t, err)
	// 40h total: no weekly OT, day 7 is a normal 10h day.
	assertDay(t, out[6], 8, 2, 0, 0)
}

// =============================================================================
// IDEMPOTENCE AND INPUT VALIDATION
// =============================================================================

func TestAllocateWeek_Idempotent(t *testing.T) {
	a, rules := newAllocator()
	in := week(8, 11, 13, 8, 9, 10, 12)

	first, err := a.AllocateWeek(in, rules.Classify("CA"))
	require.NoError(t, err)
	second, err := a.AllocateWeek(in, rules.Classify("CA"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAllocateWeek_RejectsBadShapes(t *testing.T) {
	a, rules := newAllocator()
	rs := rules.Classify("CA")

	_, err := a.AllocateWeek(week(1, 1, 1, 1, 1, 1, 1, 1), rs)
	assert.ErrorIs(t, err, generic.ErrTooManyDays)

	unsorted := week(8, 8)
	unsorted[0], unsorted[1] = unsorted[1], unsorted[0]
	_, err = a.AllocateWeek(unsorted, rs)
	assert.ErrorIs(t, err, generic.ErrUnsortedDays)

	negative := week(8, 8)
	negative[1].Hours = hrs(-2)
	_, err = a.AllocateWeek(negative, rs)
	assert.ErrorIs(t, err, generic.ErrNegativeHours)
	var hoursErr *generic.InvalidHoursError
	assert.ErrorAs(t, err, &hoursErr)
}

func TestAllocateWeek_CustomThresholds(t *testing.T) {
	rules := overtime.DefaultRules()
	rules.WeeklyThreshold = hrs(37.5)
	rules.DailyThreshold = hrs(7.5)
	a := overtime.NewAllocator(rules)

	out, err := a.AllocateWeek(week(8, 8, 8, 8, 8), rules.Classify("CO"))
	require.NoError(t, err)

	totals := overtime.SumAllocations("emp-1", out)
	assertHours(t, 2.5, totals.DailyOT)
	// 40 - 37.5 = 2.5 more from regular, starting Friday
	assertHours(t, 2.5, totals.WeeklyOT)
	assertDay(t, out[4], 5, 0.5, 0, 2.5)
}

// =============================================================================
// PERIOD DRIVER
// =============================================================================

func TestAllocatePeriod_TwoWeeksAllocatedIndependently(t *testing.T) {
	// GIVEN: 44h in each of two workweeks (TX)
	// WHEN: Allocating the two-week period
	// THEN: 4h weekly OT per week, 8 total; not 48 over a combined 40

	a, rules := newAllocator()
	start := date(2025, time.January, 6)
	period := generic.Period{Start: start, End: start.AddDays(13)}

	var days []overtime.Day
	for w := 0; w < 2; w++ {
		for i, h := range []float64{8, 8, 8, 8, 12} {
			days = append(days, overtime.Day{Date: start.AddDays(w*7 + i), Hours: hrs(h)})
		}
	}

	res, err := a.AllocatePeriod("emp-1", days, period, rules.Classify("TX"))
	require.NoError(t, err)
	assert.Len(t, res.Days, 10)
	assertHours(t, 8, res.Totals.WeeklyOT)
	assertHours(t, 88, res.Totals.TotalHours)
	assert.Equal(t, 10, res.Totals.DaysWorked)
}

func TestAllocatePeriod_SpillPastEndFormsOwnWeek(t *testing.T) {
	a, rules := newAllocator()
	start := date(2025, time.January, 6)
	period := generic.WeekStarting(start)

	days := []overtime.Day{
		{Date: start.AddDays(6), Hours: hrs(2)},
		{Date: start.AddDays(7), Hours: hrs(6)},
	}

	res, err := a.AllocatePeriod("emp-1", days, period, rules.Classify("CA"))
	require.NoError(t, err)
	assert.Len(t, res.Days, 2)
	assertHours(t, 8, res.Totals.TotalHours)
	assert.False(t, res.Totals.HasOT())
}

func TestAllocatePeriod_UnorderedInput(t *testing.T) {
	a, rules := newAllocator()
	start := date(2025, time.January, 6)

	days := week(8, 8, 8, 8, 12)
	days[0], days[4] = days[4], days[0]

	res, err := a.AllocatePeriod("emp-1", days, generic.WeekStarting(start), rules.Classify("TX"))
	require.NoError(t, err)
	assertDay(t, res.Days[4], 8, 0, 0, 4)
}

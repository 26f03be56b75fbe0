// Package overtime implements the NBOT allocation core: normalizing shifts
// into calendar-day hours, classifying jurisdictions into rule tiers, and
// splitting each employee's hours into regular, daily OT, double time and
// weekly OT.
//
// Everything here is pure and synchronous. Callers fetch rows, this package
// computes, and nothing is retained between calls.
package overtime

import (
	"fmt"
	"sort"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// DAILY HOURS - Calendar-day histogram per employee
// =============================================================================

// Day is one employee's worked hours on one calendar date.
type Day struct {
	Date  generic.TimePoint
	Hours generic.Amount
}

// DailyHours maps (employee, date) to summed hours.
// Insertion order is irrelevant; Days returns dates sorted.
type DailyHours map[generic.EmployeeID]map[generic.TimePoint]generic.Amount

// Add accumulates hours onto an employee-day.
func (d DailyHours) Add(emp generic.EmployeeID, date generic.TimePoint, hours generic.Amount) {
	byDate, ok := d[emp]
	if !ok {
		byDate = make(map[generic.TimePoint]generic.Amount)
		d[emp] = byDate
	}
	day := generic.DayOf(date.Time)
	if cur, ok := byDate[day]; ok {
		byDate[day] = cur.Add(hours)
		return
	}
	byDate[day] = hours
}

// Days returns an employee's days in chronological order.
func (d DailyHours) Days(emp generic.EmployeeID) []Day {
	byDate := d[emp]
	days := make([]Day, 0, len(byDate))
	for date, h := range byDate {
		days = append(days, Day{Date: date, Hours: h})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// Employees returns employee IDs in ascending order.
func (d DailyHours) Employees() []generic.EmployeeID {
	ids := make([]generic.EmployeeID, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Total sums an employee's hours across all dates.
func (d DailyHours) Total(emp generic.EmployeeID) generic.Amount {
	total := generic.ZeroHours()
	for _, h := range d[emp] {
		total = total.Add(h)
	}
	return total
}

// =============================================================================
// PER-DAY ALLOCATION - Non-overlapping split of one day's hours
// =============================================================================

// PerDayAllocation splits one day's hours into buckets that sum to Total.
type PerDayAllocation struct {
	Date       generic.TimePoint
	Total      generic.Amount
	Regular    generic.Amount
	DailyOT    generic.Amount
	DoubleTime generic.Amount
	WeeklyOT   generic.Amount
}

// OT returns daily OT + double time + weekly OT for the day.
func (p PerDayAllocation) OT() generic.Amount {
	return p.DailyOT.Add(p.DoubleTime).Add(p.WeeklyOT)
}

// Check verifies the four categories are non-negative and sum to Total.
func (p PerDayAllocation) Check() error {
	for _, v := range []generic.Amount{p.Regular, p.DailyOT, p.DoubleTime, p.WeeklyOT} {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative category on %s", generic.ErrAllocationInvariant, p.Date)
		}
	}
	sum := p.Regular.Add(p.OT())
	if !sum.Equal(p.Total) {
		return fmt.Errorf("%w: %s categories sum to %s, want %s",
			generic.ErrAllocationInvariant, p.Date, sum.Value, p.Total.Value)
	}
	return nil
}

// =============================================================================
// EMPLOYEE TOTALS - Category sums over a period
// =============================================================================

// EmployeeWeeklyTotals sums an employee's allocations over a period.
type EmployeeWeeklyTotals struct {
	EmployeeID      generic.EmployeeID
	TotalHours      generic.Amount
	Regular         generic.Amount
	DailyOT         generic.Amount
	DoubleTime      generic.Amount
	WeeklyOT        generic.Amount
	TotalOTExposure generic.Amount
	DaysWorked      int
}

// HasOT reports whether any OT category is positive.
func (t EmployeeWeeklyTotals) HasOT() bool {
	return t.TotalOTExposure.IsPositive()
}

// SumAllocations folds per-day allocations into employee totals.
func SumAllocations(emp generic.EmployeeID, days []PerDayAllocation) EmployeeWeeklyTotals {
	t := EmployeeWeeklyTotals{
		EmployeeID: emp,
		TotalHours: generic.ZeroHours(),
		Regular:    generic.ZeroHours(),
		DailyOT:    generic.ZeroHours(),
		DoubleTime: generic.ZeroHours(),
		WeeklyOT:   generic.ZeroHours(),
	}
	for _, d := range days {
		t.TotalHours = t.TotalHours.Add(d.Total)
		t.Regular = t.Regular.Add(d.Regular)
		t.DailyOT = t.DailyOT.Add(d.DailyOT)
		t.DoubleTime = t.DoubleTime.Add(d.DoubleTime)
		t.WeeklyOT = t.WeeklyOT.Add(d.WeeklyOT)
		if d.Total.IsPositive() {
			t.DaysWorked++
		}
	}
	t.TotalOTExposure = t.DailyOT.Add(t.DoubleTime).Add(t.WeeklyOT)
	return t
}

package generic

// =============================================================================
// PERIOD - The reporting window
// =============================================================================

// Period is an inclusive [Start, End] range of calendar days.
//
// Examples:
//   - One workweek: Mon 2025-01-06 - Sun 2025-01-12
//   - A four-week trend: 2025-01-06 - 2025-02-02
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period, rejecting an end before the start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// WeekStarting returns the 7-day period beginning at start.
func WeekStarting(start TimePoint) Period {
	return Period{Start: start, End: start.AddDays(DaysPerWeek - 1)}
}

// DaysPerWeek is the length of a workweek.
const DaysPerWeek = 7

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Length returns the number of days in the period.
func (p Period) Length() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Weeks returns the number of workweeks the period spans, rounded up.
func (p Period) Weeks() int {
	return (p.Length() + DaysPerWeek - 1) / DaysPerWeek
}

// WeekIndex returns which workweek (0-based, anchored at Start) a day falls in.
// Days before Start return a negative index.
func (p Period) WeekIndex(t TimePoint) int {
	d := DaysBetween(p.Start, t)
	if d < 0 {
		return (d - DaysPerWeek + 1) / DaysPerWeek
	}
	return d / DaysPerWeek
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PreviousWeek returns the last complete workweek ending before asOf, where
// workweeks begin on weekStart.
func PreviousWeek(asOf TimePoint, weekStart TimePoint) Period {
	offset := DaysBetween(weekStart, asOf) % DaysPerWeek
	if offset < 0 {
		offset += DaysPerWeek
	}
	currentStart := asOf.AddDays(-offset)
	return WeekStarting(currentStart.AddDays(-DaysPerWeek))
}

package overtime

import (
	"errors"
	"log/slog"

	"github.com/warp/nbot-engine/generic"
)

// =============================================================================
// SHIFT NORMALIZER - Shifts to calendar-day hours
// =============================================================================

// Rejection reasons reported in NormalizeStats.Rejected.
const (
	RejectNegative  = "negative_hours"
	RejectNonFinite = "non_finite_hours"
)

// NormalizeStats counts what happened while folding shifts.
type NormalizeStats struct {
	Shifts    int            // records folded into DailyHours
	Split     int            // records split across midnight
	Fallbacks int            // records with unparsable times, attributed whole to WorkDate
	Rejected  map[string]int // records dropped, by reason
}

// RejectedTotal sums rejected records across reasons.
func (s NormalizeStats) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// Normalizer folds ShiftRecords into DailyHours.
type Normalizer struct {
	Logger *slog.Logger
}

func (n *Normalizer) logger() *slog.Logger {
	if n == nil || n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// Normalize folds records into a DailyHours map, splitting shifts that cross
// midnight. Records with negative or non-finite hours are dropped and logged;
// records with unparsable times are attributed whole to their WorkDate.
func (n *Normalizer) Normalize(records []generic.ShiftRecord) (DailyHours, NormalizeStats) {
	out := make(DailyHours)
	stats := NormalizeStats{Rejected: make(map[string]int)}
	log := n.logger()

	for _, rec := range records {
		hours, err := generic.CheckedHours(rec.Hours)
		if err != nil {
			reason := RejectNegative
			if errors.Is(err, generic.ErrNonFiniteHours) {
				reason = RejectNonFinite
			}
			stats.Rejected[reason]++
			log.Warn("rejecting shift record",
				"employee_id", rec.EmployeeID,
				"work_date", rec.WorkDate.String(),
				"error", &generic.InvalidHoursError{EmployeeID: rec.EmployeeID, Date: rec.WorkDate, Value: rec.Hours, Err: err})
			continue
		}

		before, after, split, err := SplitShift(rec.StartTime, rec.EndTime, hours)
		if err != nil {
			stats.Fallbacks++
			log.Warn("unparsable shift times, attributing hours to work date",
				"employee_id", rec.EmployeeID,
				"work_date", rec.WorkDate.String(),
				"start", rec.StartTime,
				"end", rec.EndTime)
		}
		if split {
			stats.Split++
		}

		out.Add(rec.EmployeeID, rec.WorkDate, before)
		if after.IsPositive() {
			out.Add(rec.EmployeeID, rec.WorkDate.AddDays(1), after)
		}
		stats.Shifts++
	}
	return out, stats
}

// SplitShift divides hours into the part worked on the start date and the
// part worked after midnight. A shift crosses midnight when end <= start; the
// after-midnight part is the clock span 00:00 to end, capped at hours.
// On a parse error all hours are returned as before.
func SplitShift(start, end string, hours generic.Amount) (before, after generic.Amount, split bool, err error) {
	zero := generic.ZeroHours()
	s, err := generic.ParseClock(start)
	if err != nil {
		return hours, zero, false, err
	}
	e, err := generic.ParseClock(end)
	if err != nil {
		return hours, zero, false, err
	}
	if !e.NotAfter(s) {
		return hours, zero, false, nil
	}
	after = e.SinceMidnight().Min(hours)
	before = hours.Sub(after).Max(zero)
	return before, after, after.IsPositive(), nil
}

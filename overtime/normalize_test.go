package overtime_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

func shift(emp generic.EmployeeID, day generic.TimePoint, start, end string, hours float64) generic.ShiftRecord {
	return generic.ShiftRecord{EmployeeID: emp, WorkDate: day, StartTime: start, EndTime: end, Hours: hours}
}

func TestNormalize_MidnightSplit(t *testing.T) {
	// GIVEN: 10:00p - 06:00a, 8 hours, anchored on 2025-01-01
	// WHEN: Normalizing
	// THEN: 00:00-06:00 (6h) goes to Jan 2, the remaining 2h stay on Jan 1

	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)

	daily, stats := n.Normalize([]generic.ShiftRecord{shift("emp-1", jan1, "10:00p", "06:00a", 8)})

	assertHours(t, 2, daily["emp-1"][jan1])
	assertHours(t, 6, daily["emp-1"][jan1.AddDays(1)])
	assert.Equal(t, 1, stats.Split)
	assert.Equal(t, 0, stats.Fallbacks)
}

func TestNormalize_SameDayShift(t *testing.T) {
	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)

	daily, stats := n.Normalize([]generic.ShiftRecord{shift("emp-1", jan1, "06:00a", "02:30p", 8.5)})

	assertHours(t, 8.5, daily["emp-1"][jan1])
	assert.Len(t, daily["emp-1"], 1)
	assert.Equal(t, 0, stats.Split)
}

func TestNormalize_AfterMidnightCappedAtHours(t *testing.T) {
	// Clock span after midnight exceeds the recorded hours (unpaid break
	// recorded before midnight); daily totals still equal the shift's hours.
	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)

	daily, _ := n.Normalize([]generic.ShiftRecord{shift("emp-1", jan1, "11:00 PM", "7:00 AM", 5)})

	assertHours(t, 0, daily["emp-1"][jan1])
	assertHours(t, 5, daily["emp-1"][jan1.AddDays(1)])
	assertHours(t, 5, daily.Total("emp-1"))
}

func TestNormalize_SumsShiftsOnSameDay(t *testing.T) {
	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)
	jan2 := jan1.AddDays(1)

	daily, stats := n.Normalize([]generic.ShiftRecord{
		shift("emp-1", jan1, "06:00a", "10:00a", 4),
		shift("emp-1", jan1, "18:00", "22:00", 4),
		shift("emp-1", jan1, "10:00p", "02:00a", 4), // 2h Jan 1, 2h Jan 2
		shift("emp-1", jan2, "6am", "2pm", 8),
		shift("emp-2", jan1, "06:00a", "02:00p", 8),
	})

	assertHours(t, 10, daily["emp-1"][jan1])
	assertHours(t, 10, daily["emp-1"][jan2])
	assertHours(t, 8, daily["emp-2"][jan1])
	assert.Equal(t, []generic.EmployeeID{"emp-1", "emp-2"}, daily.Employees())
	assert.Equal(t, 5, stats.Shifts)

	days := daily.Days("emp-1")
	require.Len(t, days, 2)
	assert.True(t, days[0].Date.Equal(jan1))
	assert.True(t, days[1].Date.Equal(jan2))
}

func TestNormalize_UnparsableTimesFallBackToWorkDate(t *testing.T) {
	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)

	daily, stats := n.Normalize([]generic.ShiftRecord{
		shift("emp-1", jan1, "late", "06:00a", 8),
		shift("emp-1", jan1, "", "", 4),
	})

	assertHours(t, 12, daily["emp-1"][jan1])
	assert.Len(t, daily["emp-1"], 1)
	assert.Equal(t, 2, stats.Fallbacks)
	assert.Equal(t, 2, stats.Shifts)
}

func TestNormalize_RejectsNegativeAndNonFinite(t *testing.T) {
	n := &overtime.Normalizer{}
	jan1 := date(2025, time.January, 1)

	daily, stats := n.Normalize([]generic.ShiftRecord{
		shift("emp-1", jan1, "06:00a", "02:00p", -8),
		shift("emp-1", jan1, "06:00a", "02:00p", math.NaN()),
		shift("emp-1", jan1, "06:00a", "02:00p", math.Inf(1)),
		shift("emp-1", jan1, "06:00a", "02:00p", 8),
	})

	assertHours(t, 8, daily["emp-1"][jan1])
	assert.Equal(t, 1, stats.Rejected[overtime.RejectNegative])
	assert.Equal(t, 2, stats.Rejected[overtime.RejectNonFinite])
	assert.Equal(t, 3, stats.RejectedTotal())
	assert.Equal(t, 1, stats.Shifts)
}

func TestSplitShift(t *testing.T) {
	tests := []struct {
		name          string
		start, end    string
		hours         float64
		before, after float64
		wantErr       bool
	}{
		{"day shift", "06:00a", "02:00p", 8, 8, 0, false},
		{"overnight", "10:00p", "06:00a", 8, 2, 6, false},
		{"ends at midnight", "04:00p", "12:00a", 8, 8, 0, false},
		{"half hour after midnight", "04:30p", "12:30a", 8, 7.5, 0.5, false},
		{"24h clock overnight", "22:00", "06:00", 8, 2, 6, false},
		{"spaced meridiem", "10:00 PM", "6:00 AM", 8, 2, 6, false},
		{"bad end", "10:00p", "??", 8, 8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after, _, err := overtime.SplitShift(tt.start, tt.end, hrs(tt.hours))
			if tt.wantErr {
				assert.ErrorIs(t, err, generic.ErrUnparsableTime)
			} else {
				assert.NoError(t, err)
			}
			assertHours(t, tt.before, before, "before")
			assertHours(t, tt.after, after, "after")
		})
	}
}

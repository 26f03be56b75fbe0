package generic

import (
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (shifts are anchored to days, not instants)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates any instant to its calendar day in UTC.
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return TimePoint{}, err
	}
	return DayOf(t), nil
}

func Today() TimePoint {
	return DayOf(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) String() string        { return tp.Time.Format(dateLayout) }

func DaysBetween(from, to TimePoint) int { return int(to.normalize().Sub(from.normalize()).Hours() / 24) }

// =============================================================================
// CLOCK TIME - Wall-clock time-of-day without a date
// =============================================================================

// ClockTime is a time of day. Shift start/end values carry no date.
type ClockTime struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// SinceMidnight returns the span from 00:00 to c in hours.
func (c ClockTime) SinceMidnight() Amount { return HoursFromClock(c.Hour, c.Minute) }

// NotAfter reports whether c is at or before other on the clock face.
func (c ClockTime) NotAfter(other ClockTime) bool { return c.Minutes() <= other.Minutes() }

var clockLayouts = []string{"3:04pm", "3pm", "15:04", "15:04:05", "3:04:05pm"}

// ParseClock parses the warehouse's "06:00a"/"02:00p" values as well as
// "6:00 AM", "6pm" and 24-hour "18:30".
func ParseClock(s string) (ClockTime, error) {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if v == "" {
		return ClockTime{}, ErrUnparsableTime
	}
	// The warehouse drops the trailing "m".
	if strings.HasSuffix(v, "a") || strings.HasSuffix(v, "p") {
		v += "m"
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return ClockTime{}, ErrUnparsableTime
}

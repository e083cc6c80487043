package timeutil

import (
	"fmt"
	"time"
)

// Period names accepted by list and report queries
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// DateLayout is the wire format for date query parameters
const DateLayout = "2006-01-02"

// StartOfDay returns midnight at the start of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's day. Date-range filters use this
// as the upper bound so entries logged late in the final day are not dropped
// by an exclusive midnight boundary.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// PeriodRange returns the inclusive [start, end] window for a named period
// in now's location. Weeks start on Monday.
func PeriodRange(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case PeriodToday:
		return StartOfDay(now), EndOfDay(now), nil
	case PeriodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started the previous Monday
		}
		monday := StartOfDay(now.AddDate(0, 0, -(weekday - 1)))
		return monday, EndOfDay(monday.AddDate(0, 0, 6)), nil
	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return first, EndOfDay(last), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}

// ParseDate parses a YYYY-MM-DD query parameter in the server's local calendar
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.Local)
}

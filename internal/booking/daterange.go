package booking

import (
	"strings"
	"time"
)

// RangeName selects a named calendar window.
type RangeName string

const (
	RangeToday RangeName = "today"
	RangeWeek  RangeName = "week"
	RangeMonth RangeName = "month"
	RangeAll   RangeName = "all"
)

// ParseRangeName maps value to a RangeName; anything unrecognised is RangeAll.
func ParseRangeName(value string) RangeName {
	switch n := RangeName(strings.ToLower(strings.TrimSpace(value))); n {
	case RangeToday, RangeWeek, RangeMonth:
		return n
	default:
		return RangeAll
	}
}

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days reports the number of days covered.
func (r DateRange) Days() int {
	return int(r.End.In(time.UTC).Sub(r.Start.In(time.UTC)).Hours()/24) + 1
}

// ResolveRange computes the concrete bounds of name relative to today.
// Weeks start on Monday; a Sunday is the seventh day of the preceding week.
// The "all" window runs from the first day of the month six months back to
// the last day of the month six months ahead.
func ResolveRange(name RangeName, today Date) DateRange {
	switch name {
	case RangeToday:
		return DateRange{Start: today, End: today}
	case RangeWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return DateRange{Start: start, End: start.AddDays(6)}
	case RangeMonth:
		return DateRange{Start: today.FirstOfMonth(), End: today.LastOfMonth()}
	default:
		return DateRange{
			Start: today.AddMonths(-6),
			End:   today.AddMonths(6).LastOfMonth(),
		}
	}
}

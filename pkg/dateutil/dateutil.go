// Package dateutil provides the calendar-day math underlying every
// surveillance calculation. All interval arithmetic is calendar-day-based,
// not wall-clock-duration-based, because resident-days and days-of-therapy
// are regulatory definitions expressed in whole days.
package dateutil

import (
	"time"

	"github.com/carewatch/stewardship/pkg/types"
)

// ISODate is the canonical calendar-date layout used across the system.
const ISODate = "2006-01-02"

// parseLayouts are the timestamp layouts accepted by ToCalendarDate beyond
// the date-only form.
var parseLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DateRange is an inclusive calendar-date range. Callers must supply
// normalized ranges (Start <= End) for calculations to be meaningful;
// functions over inverted ranges degrade to empty/zero results.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewRange parses two ISO-like date strings into a DateRange.
func NewRange(start, end string) (DateRange, error) {
	s, err := ToCalendarDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ToCalendarDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

// Days returns the inclusive day count of the range, or 0 for an inverted
// range.
func (r DateRange) Days() int {
	d := CalendarDayDifference(r.Start, r.End) + 1
	if d < 0 {
		return 0
	}
	return d
}

// Contains reports whether t falls on a calendar day within the range.
func (r DateRange) Contains(t time.Time) bool {
	return CalendarDayDifference(r.Start, t) >= 0 && CalendarDayDifference(t, r.End) >= 0
}

// ToCalendarDate parses a date-only ISO string or a full timestamp into the
// local midnight of that calendar day. Date-only strings are interpreted as
// local midnight rather than UTC midnight to avoid off-by-one errors across
// timezones.
func ToCalendarDate(isoLike string) (time.Time, error) {
	if isoLike == "" {
		return time.Time{}, types.NewParseError(types.ErrCodeInvalidDate, "empty date string", nil)
	}

	if t, err := time.ParseInLocation(ISODate, isoLike, time.Local); err == nil {
		return t, nil
	}

	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, isoLike); err == nil {
			return atMidnight(t), nil
		}
	}

	return time.Time{}, types.NewParseError(types.ErrCodeInvalidDate, "unparseable date: "+isoLike, nil)
}

// EnumerateDays returns every calendar day in the range as ISO date strings,
// inclusive of both endpoints. An inverted range yields an empty sequence.
func EnumerateDays(r DateRange) []string {
	n := r.Days()
	if n <= 0 {
		return nil
	}

	days := make([]string, 0, n)
	for d := atMidnight(r.Start); len(days) < n; d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(ISODate))
	}
	return days
}

// CalendarDayDifference returns b minus a in whole calendar days,
// timezone-naive. The computation goes through civil day numbers rather than
// dividing durations so DST transitions cannot skew the count.
func CalendarDayDifference(a, b time.Time) int {
	return int(civilDay(b) - civilDay(a))
}

// civilDay converts a time to its day number since the Unix epoch, using
// only the calendar date components.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// atMidnight truncates a time to local midnight of its calendar day.
func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

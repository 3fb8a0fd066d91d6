// Package daterange computes the day/week/month time windows used to
// query and bucket session history. All inputs and outputs are Unix epoch
// milliseconds unless noted. The time zone is explicit on the Calculator;
// nothing here reads the ambient process zone unless asked to.
package daterange

import (
	"errors"
	"time"
)

// ErrInvalidIndex means an internal weekday index fell outside 0..6.
// It indicates an invariant violation upstream; valid inputs can't reach it.
var ErrInvalidIndex = errors.New("day-of-week index out of range")

const weekMillis = 7 * 24 * 60 * 60 * 1000

// Range is an inclusive [Start, End] window in epoch milliseconds.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether t falls inside the window, inclusive both ends.
func (r Range) Contains(t int64) bool {
	return t >= r.Start && t <= r.End
}

// Calculator derives calendar windows in a fixed time zone.
type Calculator struct {
	loc *time.Location
}

// NewCalculator returns a Calculator for the given zone.
// A nil location means time.Local.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{loc: loc}
}

// Location returns the calculator's time zone.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// DayRange is [00:00:00.000, 23:59:59.999] of the calendar day holding t.
func (c *Calculator) DayRange(t int64) Range {
	day := c.midnightOf(t)
	return Range{
		Start: day.UnixMilli(),
		End:   day.AddDate(0, 0, 1).Add(-time.Millisecond).UnixMilli(),
	}
}

// WeekRange is [Monday 00:00:00.000, Sunday 23:59:59.999] of the ISO week
// holding t. Weeks start Monday.
func (c *Calculator) WeekRange(t int64) Range {
	day := c.midnightOf(t)
	monday := day.AddDate(0, 0, -weekdayIndex(day))
	return Range{
		Start: monday.UnixMilli(),
		End:   monday.AddDate(0, 0, 7).Add(-time.Millisecond).UnixMilli(),
	}
}

// MonthRange is [1st 00:00:00.000, last day 23:59:59.999] of the calendar
// month holding t.
func (c *Calculator) MonthRange(t int64) Range {
	d := time.UnixMilli(t).In(c.loc)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, c.loc)
	return Range{
		Start: first.UnixMilli(),
		End:   first.AddDate(0, 1, 0).Add(-time.Millisecond).UnixMilli(),
	}
}

// ShiftWeek moves a window by n weeks of fixed length (n may be negative).
// The shift is exactly n*7*24h in milliseconds and is NOT re-derived from
// calendar fields, so across a DST transition the shifted window drifts by
// the local offset change. Known limitation, kept for compatibility with
// WeekRange callers that page backwards by repeated shifting.
func ShiftWeek(r Range, n int) Range {
	return Range{
		Start: r.Start + int64(n)*weekMillis,
		End:   r.End + int64(n)*weekMillis,
	}
}

// DayOfWeekIndex maps t to 0 (Monday) .. 6 (Sunday), in the calculator's
// zone.
func (c *Calculator) DayOfWeekIndex(t int64) int {
	return weekdayIndex(time.UnixMilli(t).In(c.loc))
}

var dayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayOfWeekName names the weekday holding t.
func (c *Calculator) DayOfWeekName(t int64) (string, error) {
	return DayName(c.DayOfWeekIndex(t))
}

// DayName names a weekday slot, 0 (Monday) .. 6 (Sunday).
func DayName(idx int) (string, error) {
	if idx < 0 || idx > 6 {
		return "", ErrInvalidIndex
	}
	return dayNames[idx], nil
}

// FormatDate formats t with a caller-supplied reference layout.
func (c *Calculator) FormatDate(t int64, layout string) string {
	return time.UnixMilli(t).In(c.loc).Format(layout)
}

func (c *Calculator) midnightOf(t int64) time.Time {
	d := time.UnixMilli(t).In(c.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

// weekdayIndex rebases time.Weekday (Sunday=0) onto Monday=0.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

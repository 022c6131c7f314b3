// Package calendar implements the ISO-8601 week arithmetic used to key
// weekly statistics and capture records.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekKey identifies an ISO week. Year is the ISO year, which differs from
// the calendar year for the few days around New Year.
type WeekKey struct {
	Year int
	Week int
}

// KeyOf returns the ISO week containing t.
func KeyOf(t time.Time) WeekKey {
	y, w := t.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

// String formats the key as "<year>_<week>" with a zero-padded week,
// e.g. "2024_03". This is the on-disk name of stat files and record dirs.
func (k WeekKey) String() string {
	return fmt.Sprintf("%d_%02d", k.Year, k.Week)
}

// ParseKey parses a "<year>_<week>" name.
func ParseKey(s string) (WeekKey, error) {
	yearStr, weekStr, ok := strings.Cut(s, "_")
	if !ok {
		return WeekKey{}, fmt.Errorf("invalid week key %q", s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return WeekKey{}, fmt.Errorf("invalid week key %q: %w", s, err)
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil {
		return WeekKey{}, fmt.Errorf("invalid week key %q: %w", s, err)
	}
	if week < 1 || week > 53 {
		return WeekKey{}, fmt.Errorf("invalid week key %q: week out of range", s)
	}
	return WeekKey{Year: year, Week: week}, nil
}

// Start returns Monday 00:00 of the key's week in loc.
func (k WeekKey) Start(loc *time.Location) time.Time {
	// January 4th is always in ISO week 1.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, loc)
	week1 := StartOfWeek(jan4)
	return week1.AddDate(0, 0, (k.Week-1)*7)
}

// Range returns the first (Monday) and last (Sunday) day of the week.
func (k WeekKey) Range(loc *time.Location) (time.Time, time.Time) {
	start := k.Start(loc)
	return start, start.AddDate(0, 0, 6)
}

// StartOfWeek returns Monday 00:00 of the week containing t, in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateLayout is the layout of week_start values in stat files.
const DateLayout = "2006-01-02"

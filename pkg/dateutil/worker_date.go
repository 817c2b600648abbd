// Package dateutil parses the loosely formatted dates found in tracker sheets
// and does the calendar arithmetic the alert ladders need.
package dateutil

import (
	"strings"
	"time"
)

// DisplayLayout is the day-first layout used for every date the service writes.
const DisplayLayout = "02/01/2006"

// parseLayouts are tried in order. Day-first layouts come before ISO ones so
// that "03/04/2024" is 3 April.
var parseLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"2006/1/2",
}

// ParseDate parses value into a local midnight date. A timestamp carrying its
// own zone keeps the calendar day written in it. ok is false for empty or
// unparseable input.
func ParseDate(value string) (date time.Time, ok bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	switch strings.ToLower(s) {
	case "nan", "nat", "none", "null":
		return time.Time{}, false
	}

	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

// Normalize truncates t to midnight in the local zone.
func Normalize(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Today returns the local midnight of now.
func Today(now time.Time) time.Time {
	return Normalize(now)
}

// Format renders a date in DisplayLayout.
func Format(t time.Time) string {
	return t.Format(DisplayLayout)
}

// IsBusinessDay reports whether t falls Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDaysBetween counts weekdays in the half-open range (from, to].
// It returns 0 when to is not after from.
func BusinessDaysBetween(from, to time.Time) int {
	from, to = Normalize(from), Normalize(to)
	if !to.After(from) {
		return 0
	}

	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// AddBusinessDays steps forward from d until n weekdays have been passed.
func AddBusinessDays(d time.Time, n int) time.Time {
	d = Normalize(d)
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			added++
		}
	}
	return d
}

// CalendarDaysBetween returns to minus from in whole days. Daylight saving
// shifts do not affect the result.
func CalendarDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

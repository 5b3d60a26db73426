package model

import "time"

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// CalendarDate drops the clock and zone of t, keeping its calendar day in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole calendar days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(CalendarDate(b).Sub(CalendarDate(a)).Hours() / 24)
}

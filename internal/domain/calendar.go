package domain

import (
	"fmt"
	"time"
)

// Week is the length of one activity period.
const Week = 7 * 24 * time.Hour

// DayStart truncates t to UTC midnight.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday 00:00 UTC of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	// Sunday is 0 in time.Weekday; ISO weeks start on Monday.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// CohortID formats the ISO year and week of t as "IYYY-IW".
func CohortID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

// WeeksBetween returns the whole number of weeks from start to end.
// Both arguments are expected to be week starts.
func WeeksBetween(start, end time.Time) int {
	return int(end.Sub(start) / Week)
}

// Package calendar turns weekly recurrence patterns into concrete dates.
// Everything here is pure computation; callers own the horizon.
package calendar

import "time"

// DefaultHorizon is the rolling booking window offered to patients.
const DefaultHorizon = 28 * 24 * time.Hour

// Truncate normalizes t to a date: midnight UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the first date on or after from whose weekday
// matches weekday.
func NextOccurrence(weekday time.Weekday, from time.Time) time.Time {
	d := Truncate(from)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// Occurrences returns every date in the half-open window [start, end) whose
// weekday matches weekday, in ascending order. Month and year rollover is
// handled by time.Time date arithmetic.
func Occurrences(weekday time.Weekday, start, end time.Time) []time.Time {
	var dates []time.Time
	for d := NextOccurrence(weekday, start); d.Before(Truncate(end)); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// Week is one presentation bucket of the horizon.
type Week struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"` // exclusive
}

// Weeks partitions the default horizon starting at today into four 7-day
// buckets. This is display convenience only, a pure function of "today";
// the backend always works with the continuous window.
func Weeks(today time.Time) []Week {
	labels := []string{"This Week", "Next Week", "Week After", "4th Week"}
	start := Truncate(today)

	weeks := make([]Week, 0, len(labels))
	for i, label := range labels {
		weeks = append(weeks, Week{
			Label: label,
			Start: start.AddDate(0, 0, i*7),
			End:   start.AddDate(0, 0, (i+1)*7),
		})
	}
	return weeks
}

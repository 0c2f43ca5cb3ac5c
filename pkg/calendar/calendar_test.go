package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	// Wed 2025-01-01
	from := date(2025, time.January, 1)

	assert.Equal(t, date(2025, time.January, 1), NextOccurrence(time.Wednesday, from))
	assert.Equal(t, date(2025, time.January, 6), NextOccurrence(time.Monday, from))
	assert.Equal(t, date(2025, time.January, 5), NextOccurrence(time.Sunday, from))
}

func TestNextOccurrenceNormalizesTime(t *testing.T) {
	from := time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC)
	got := NextOccurrence(time.Wednesday, from)
	assert.Equal(t, date(2025, time.January, 1), got)
}

func TestOccurrencesFourMondaysInDefaultHorizon(t *testing.T) {
	// Mon 2025-03-03, 28-day window
	start := date(2025, time.March, 3)
	end := start.Add(DefaultHorizon)

	dates := Occurrences(time.Monday, start, end)
	require.Len(t, dates, 4)
	assert.Equal(t, date(2025, time.March, 3), dates[0])
	assert.Equal(t, date(2025, time.March, 10), dates[1])
	assert.Equal(t, date(2025, time.March, 17), dates[2])
	assert.Equal(t, date(2025, time.March, 24), dates[3])
}

func TestOccurrencesWindowIsHalfOpen(t *testing.T) {
	start := date(2025, time.March, 3) // Monday
	end := date(2025, time.March, 10)  // next Monday, excluded

	dates := Occurrences(time.Monday, start, end)
	require.Len(t, dates, 1)
	assert.Equal(t, start, dates[0])
}

func TestOccurrencesMonthAndYearRollover(t *testing.T) {
	start := date(2024, time.December, 28)
	end := date(2025, time.January, 20)

	dates := Occurrences(time.Tuesday, start, end)
	require.Len(t, dates, 3)
	assert.Equal(t, date(2024, time.December, 31), dates[0])
	assert.Equal(t, date(2025, time.January, 7), dates[1])
	assert.Equal(t, date(2025, time.January, 14), dates[2])

	for _, d := range dates {
		assert.Equal(t, time.Tuesday, d.Weekday())
	}
}

func TestOccurrencesEmptyWindow(t *testing.T) {
	start := date(2025, time.March, 4) // Tuesday
	end := date(2025, time.March, 6)

	assert.Empty(t, Occurrences(time.Monday, start, end))
	assert.Empty(t, Occurrences(time.Monday, start, start))
}

func TestWeeksPartitionTheHorizon(t *testing.T) {
	today := date(2025, time.March, 5)
	weeks := Weeks(today)

	require.Len(t, weeks, 4)
	assert.Equal(t, "This Week", weeks[0].Label)
	assert.Equal(t, today, weeks[0].Start)
	assert.Equal(t, today.Add(DefaultHorizon), weeks[3].End)

	for i := 1; i < len(weeks); i++ {
		assert.Equal(t, weeks[i-1].End, weeks[i].Start)
	}
}

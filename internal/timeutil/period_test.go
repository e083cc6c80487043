package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndOfDayIsInclusive(t *testing.T) {
	day, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	end := EndOfDay(day)

	// An entry logged at 23:50 on the end date must fall inside the bound
	lateEntry := time.Date(2024, 3, 5, 23, 50, 0, 0, time.Local)
	assert.True(t, lateEntry.Before(end) || lateEntry.Equal(end))

	// Midnight of the next day must not
	nextMidnight := time.Date(2024, 3, 6, 0, 0, 0, 0, time.Local)
	assert.True(t, end.Before(nextMidnight))
}

func TestPeriodRangeToday(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	start, end, err := PeriodRange(PeriodToday, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, 5, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
}

func TestPeriodRangeWeek(t *testing.T) {
	// 2024-03-05 is a Tuesday; the week runs Monday 03-04 through Sunday 03-10
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.Local)
	start, end, err := PeriodRange(PeriodWeek, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.March, end.Month())
	assert.Equal(t, 10, end.Day())

	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	start, _, err = PeriodRange(PeriodWeek, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local), start)
}

func TestPeriodRangeMonth(t *testing.T) {
	now := time.Date(2024, 2, 15, 8, 0, 0, 0, time.Local)
	start, end, err := PeriodRange(PeriodMonth, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, 29, end.Day()) // leap year
	assert.Equal(t, 23, end.Hour())
}

func TestPeriodRangeUnknown(t *testing.T) {
	_, _, err := PeriodRange("fortnight", time.Now())
	assert.Error(t, err)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00:00:00", FormatDuration(0))
	require.Equal(t, "00:01:15", FormatDuration(75*time.Second))
	require.Equal(t, "00:00:05", FormatDuration(5*time.Second+900*time.Millisecond))
	require.Equal(t, "01:30:00", FormatDuration(90*time.Minute))

	// Multi-day totals keep counting hours.
	require.Equal(t, "49:00:01", FormatDuration(49*time.Hour+time.Second))
	require.Equal(t, "00:00:00", FormatSeconds(-3))
}

func TestDateBucket(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "2026-03-01", DateBucket(ts, nil))

	tokyo := time.FixedZone("JST", 9*3600)
	require.Equal(t, "2026-03-02", DateBucket(ts, tokyo))
}

func TestAttendanceRecordOpen(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := AttendanceRecord{Identity: "S1", CheckInTime: in}
	require.True(t, rec.Open())
	require.Zero(t, rec.Elapsed())

	out := in.Add(time.Hour)
	rec.CheckOutTime = &out
	require.False(t, rec.Open())
	require.Equal(t, time.Hour, rec.Elapsed())
}

func TestIsWellFormed(t *testing.T) {
	t.Parallel()

	require.True(t, IsWellFormed("0007"))
	require.True(t, IsWellFormed("9999"))
	require.False(t, IsWellFormed("123"))
	require.False(t, IsWellFormed("12345"))
	require.False(t, IsWellFormed("12a4"))
	require.False(t, IsWellFormed("-123"))
	require.False(t, IsWellFormed(" 123"))
}

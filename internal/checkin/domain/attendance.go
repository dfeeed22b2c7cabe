package domain

import (
	"fmt"
	"time"
)

// DateLayout is the layout of AttendanceRecord.DateBucket.
const DateLayout = "2006-01-02"

// AttendanceRecord is the single attendance row kept per identity. A new
// check-in replaces the row, so only the latest session is retained.
type AttendanceRecord struct {
	Identity     string
	CheckInTime  time.Time
	CheckOutTime *time.Time // nil while the session is open
	Duration     *string    // HH:MM:SS, set on check-out
	DateBucket   string     // calendar date of CheckInTime
}

// Open reports whether the record has been checked in but not out.
func (r AttendanceRecord) Open() bool {
	return r.CheckOutTime == nil
}

// Elapsed returns the closed session length, or zero for an open record.
func (r AttendanceRecord) Elapsed() time.Duration {
	if r.CheckOutTime == nil {
		return 0
	}
	return r.CheckOutTime.Sub(r.CheckInTime)
}

// WeeklyTotal is the summed attendance time of one identity over a report range.
type WeeklyTotal struct {
	Identity     string
	TotalSeconds int64
	Total        string
}

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24 and
// fractions of a second are dropped.
func FormatDuration(d time.Duration) string {
	return FormatSeconds(int64(d / time.Second))
}

// FormatSeconds renders a whole number of seconds as HH:MM:SS.
func FormatSeconds(total int64) string {
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DateBucket returns the calendar date of t in loc.
func DateBucket(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

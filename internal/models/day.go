package models

import "time"

// DateLayout is the key format for a calendar day
const DateLayout = "2006-01-02"

// All day grouping uses UTC truncation. Daily series, export dates and the
// audit pack must go through these helpers so views never disagree.

// TimeOf converts epoch milliseconds to a UTC time
func TimeOf(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DayStart returns midnight UTC of the day containing t
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey returns the UTC calendar day of an epoch millisecond timestamp
func DayKey(ms int64) string {
	return TimeOf(ms).Format(DateLayout)
}

package entities

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used throughout the scheduling core.
// Dates are provider-local; no timezone normalization is applied.
const DateLayout = "2006-01-02"

// ClockLayout is the minute-granularity time-of-day format
const ClockLayout = "15:04"

// ErrSlotInverted is returned when a slot's end does not follow its start
var ErrSlotInverted = errors.New("slot end time must be after start time")

// ParseDate parses a calendar date string
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}

// ParseClock parses a "HH:mm" wall clock string into minutes since midnight
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:mm", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DateOf formats t's calendar date
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ClockOf formats t's time-of-day at minute granularity
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// CombineDateClock resolves a date string and clock string to a single local
// timestamp. Both inputs must already be validated.
func CombineDateClock(date, clock string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, time.Local)
}

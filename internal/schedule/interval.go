// Package schedule implements the appointment scheduling core: clock
// arithmetic, room assignment, conflict detection, and the booking
// admission decision. Everything in this package is pure computation;
// callers supply reference data and a snapshot of existing bookings.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned for malformed clock or date strings.
// Malformed input is never substituted with a default time.
var ErrInvalidTimeFormat = errors.New("invalid time format")

const minutesPerDay = 24 * 60

// ClockTime is minutes since midnight. A booking end may equal 24:00
// (minute 1440) because intervals are half-open.
type ClockTime int

// ParseClock parses a strict "HH:MM" or "HH:MM:SS" clock string.
// "24:00" is accepted as the day-end sentinel so stored booking ends
// round-trip.
func ParseClock(s string) (ClockTime, error) {
	if s == "24:00" || s == "24:00:00" {
		return ClockTime(minutesPerDay), nil
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("schedule: parse clock %q: %w", s, ErrInvalidTimeFormat)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// String renders the clock as "HH:MM". A 24:00 end renders as "24:00".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON renders the clock as an "HH:MM" string.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses an "HH:MM" or "HH:MM:SS" string, strictly.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Add returns the clock shifted by the given minutes. Results outside
// the same day are an error; cross-midnight bookings are not supported.
func (c ClockTime) Add(minutes int) (ClockTime, error) {
	out := int(c) + minutes
	if out < 0 || out > minutesPerDay {
		return 0, fmt.Errorf("schedule: %s + %dm leaves the day: %w", c, minutes, ErrInvalidTimeFormat)
	}
	return ClockTime(out), nil
}

// ParseDate validates a "YYYY-MM-DD" calendar date and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("schedule: parse date %q: %w", s, ErrInvalidTimeFormat)
	}
	return t.Format("2006-01-02"), nil
}

// Weekday returns the weekday of a "YYYY-MM-DD" date.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("schedule: parse date %q: %w", date, ErrInvalidTimeFormat)
	}
	return t.Weekday(), nil
}

// Interval is a half-open appointment span [Start, End).
type Interval struct {
	Start ClockTime
	End   ClockTime
}

// NewInterval builds the interval covering a service of the given
// duration. The end is exactly start + duration, no slack.
func NewInterval(start ClockTime, durationMinutes int) (Interval, error) {
	if durationMinutes <= 0 {
		return Interval{}, fmt.Errorf("schedule: non-positive duration %d: %w", durationMinutes, ErrInvalidTimeFormat)
	}
	end, err := start.Add(durationMinutes)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Gap returns the idle minutes between two non-overlapping intervals,
// or 0 when they overlap or touch.
func (iv Interval) Gap(other Interval) int {
	switch {
	case iv.End <= other.Start:
		return int(other.Start - iv.End)
	case other.End <= iv.Start:
		return int(iv.Start - other.End)
	default:
		return 0
	}
}

// WithinBuffer reports whether two non-overlapping intervals sit closer
// than the required buffer, in either direction. A gap equal to the
// buffer satisfies the policy. Overlapping intervals are not a buffer
// violation; they are an overlap.
func (iv Interval) WithinBuffer(other Interval, bufferMinutes int) bool {
	if bufferMinutes <= 0 || iv.Overlaps(other) {
		return false
	}
	return iv.Gap(other) < bufferMinutes
}

package schedule

import (
	"fmt"
	"time"
)

// Defaults applied by Policy.withDefaults.
const (
	DefaultBufferMinutes   = 15
	DefaultSlotStepMinutes = 15
)

// DayWindow is a single day's open hours, half-open [Open, Close).
type DayWindow struct {
	Open  ClockTime
	Close ClockTime
}

// WeekHours maps weekdays to opening windows. A nil entry means the
// spa is closed that day.
type WeekHours [7]*DayWindow

// Window returns the opening window for a weekday, or nil when closed.
func (w *WeekHours) Window(day time.Weekday) *DayWindow {
	if w == nil {
		return nil
	}
	return w[int(day)]
}

// Contains reports whether the interval fits entirely inside the day's
// opening window.
func (w *WeekHours) Contains(day time.Weekday, span Interval) bool {
	win := w.Window(day)
	if win == nil {
		return false
	}
	return span.Start >= win.Open && span.End <= win.Close
}

// ParseWeekHours builds WeekHours from "HH:MM" open/close pairs keyed
// by weekday. Days absent from the map are closed.
func ParseWeekHours(hours map[time.Weekday][2]string) (*WeekHours, error) {
	var out WeekHours
	for day, pair := range hours {
		open, err := ParseClock(pair[0])
		if err != nil {
			return nil, fmt.Errorf("schedule: %s open: %w", day, err)
		}
		close_, err := ParseClock(pair[1])
		if err != nil {
			return nil, fmt.Errorf("schedule: %s close: %w", day, err)
		}
		if close_ <= open {
			return nil, fmt.Errorf("schedule: %s closes before it opens: %w", day, ErrInvalidTimeFormat)
		}
		out[int(day)] = &DayWindow{Open: open, Close: close_}
	}
	return &out, nil
}

// Policy carries the spa's scheduling constants: buffer between
// bookings sharing a room, the designated body-scrub room, the ordered
// couples-room preference list, the availability slot grid, and the
// opening hours.
type Policy struct {
	BufferMinutes    int
	SpecialRoomID    string
	CouplesRoomOrder []string
	SlotStepMinutes  int
	Hours            *WeekHours
}

func (p Policy) withDefaults() Policy {
	if p.BufferMinutes <= 0 {
		p.BufferMinutes = DefaultBufferMinutes
	}
	if p.SlotStepMinutes <= 0 {
		p.SlotStepMinutes = DefaultSlotStepMinutes
	}
	return p
}

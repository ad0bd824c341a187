package schedule

import "time"

// Fallback window used when no opening hours are configured.
var defaultWindow = DayWindow{Open: 9 * 60, Close: 18 * 60}

// Slot is an open start time the spa can offer for a service.
type Slot struct {
	Start  ClockTime `json:"start"`
	End    ClockTime `json:"end"`
	RoomID string    `json:"room_id"`
}

// AvailableSlots lists the admissible start times for a service on a
// date, on the policy's slot grid, by running the admission decision
// for each candidate start against the same snapshot.
func (e *Engine) AvailableSlots(serviceID, staffID, date string, existing []BookingRef) ([]Slot, error) {
	normalized, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	svc, err := e.catalog.Service(serviceID)
	if err != nil {
		return nil, err
	}
	day, err := Weekday(normalized)
	if err != nil {
		return nil, err
	}

	window := e.window(day)
	if window == nil {
		return nil, nil
	}

	var slots []Slot
	step := ClockTime(e.policy.SlotStepMinutes)
	for start := window.Open; start+ClockTime(svc.DurationMinutes) <= window.Close; start += step {
		res, err := e.Admit(AdmissionRequest{
			ServiceID: serviceID,
			StaffID:   staffID,
			Date:      normalized,
			Start:     start.String(),
		}, existing)
		if err != nil {
			return nil, err
		}
		if res.Accepted {
			slots = append(slots, Slot{Start: res.Start, End: res.End, RoomID: res.RoomID})
		}
	}
	return slots, nil
}

func (e *Engine) window(day time.Weekday) *DayWindow {
	if e.policy.Hours == nil {
		w := defaultWindow
		return &w
	}
	return e.policy.Hours.Window(day)
}

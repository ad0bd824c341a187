// Package bookings persists appointments and drives the booking
// lifecycle: admission via the scheduling core, the status state
// machine, and the write-time double-booking guard.
package bookings

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serenity-spa/booking-platform/internal/schedule"
)

// Status is a booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ErrInvalidTransition is returned for a disallowed status change.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
	// completed, no_show, and cancelled are terminal.
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is an allowed transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// checkTransition returns a typed error when s -> next is not allowed.
func checkTransition(s, next Status) error {
	if !next.Valid() {
		return fmt.Errorf("bookings: unknown status %q: %w", next, ErrInvalidTransition)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("bookings: %s -> %s: %w", s, next, ErrInvalidTransition)
	}
	return nil
}

// Booking is a persisted appointment row.
type Booking struct {
	ID            uuid.UUID          `json:"id"`
	ServiceID     string             `json:"service_id"`
	StaffID       string             `json:"staff_id"`
	RoomID        string             `json:"room_id"`
	Date          string             `json:"date"`
	Start         schedule.ClockTime `json:"start_time"`
	End           schedule.ClockTime `json:"end_time"`
	Status        Status             `json:"status"`
	BufferMinutes int                `json:"buffer_minutes"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Ref returns the snapshot view the scheduling core consumes.
func (b *Booking) Ref() schedule.BookingRef {
	return schedule.BookingRef{
		ID:      b.ID.String(),
		RoomID:  b.RoomID,
		StaffID: b.StaffID,
		Date:    b.Date,
		Span:    schedule.Interval{Start: b.Start, End: b.End},
		Status:  string(b.Status),
	}
}

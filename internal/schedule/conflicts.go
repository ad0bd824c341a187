package schedule

import "github.com/serenity-spa/booking-platform/internal/catalog"

// statusCancelled matches bookings.StatusCancelled; cancelled rows
// never block a slot.
const statusCancelled = "cancelled"

// ConflictKind classifies a detected conflict.
type ConflictKind string

const (
	ConflictRoom   ConflictKind = "room"
	ConflictStaff  ConflictKind = "staff"
	ConflictBuffer ConflictKind = "buffer"
)

// BookingRef is the snapshot view of an existing booking, as read from
// the persistence layer.
type BookingRef struct {
	ID      string
	RoomID  string
	StaffID string
	Date    string
	Span    Interval
	Status  string
}

// Candidate is a proposed booking to check against the snapshot.
type Candidate struct {
	RoomID  string
	StaffID string
	Date    string
	Span    Interval
}

// Conflict records one existing booking blocking the candidate.
type Conflict struct {
	Kind    ConflictKind
	Booking BookingRef
}

// Conflicts holds the disjoint conflict categories for a candidate.
// A pair that overlaps in the same room appears only under Room, never
// also under Buffer.
type Conflicts struct {
	Room   []Conflict
	Staff  []Conflict
	Buffer []Conflict
}

// Empty reports whether no conflicts were found.
func (c Conflicts) Empty() bool {
	return len(c.Room) == 0 && len(c.Staff) == 0 && len(c.Buffer) == 0
}

// PrimarySource returns the highest-precedence non-empty category,
// room > staff > buffer, or "" when empty. This ordering decides the
// reason surfaced to the caller.
func (c Conflicts) PrimarySource() ConflictKind {
	switch {
	case len(c.Room) > 0:
		return ConflictRoom
	case len(c.Staff) > 0:
		return ConflictStaff
	case len(c.Buffer) > 0:
		return ConflictBuffer
	default:
		return ""
	}
}

// FindConflicts checks a candidate booking against the snapshot.
// Cancelled bookings and bookings on other dates are ignored. The
// any-available staff sentinel never collides with itself or anything
// else.
func FindConflicts(candidate Candidate, existing []BookingRef, bufferMinutes int) Conflicts {
	var out Conflicts
	for _, b := range existing {
		if b.Status == statusCancelled || b.Date != candidate.Date {
			continue
		}
		sameRoom := b.RoomID != "" && b.RoomID == candidate.RoomID
		if sameRoom && candidate.Span.Overlaps(b.Span) {
			out.Room = append(out.Room, Conflict{Kind: ConflictRoom, Booking: b})
			continue
		}
		if staffCollides(candidate.StaffID, b.StaffID) && candidate.Span.Overlaps(b.Span) {
			out.Staff = append(out.Staff, Conflict{Kind: ConflictStaff, Booking: b})
			continue
		}
		if sameRoom && candidate.Span.WithinBuffer(b.Span, bufferMinutes) {
			out.Buffer = append(out.Buffer, Conflict{Kind: ConflictBuffer, Booking: b})
		}
	}
	return out
}

func staffCollides(a, b string) bool {
	if a == "" || b == "" || a == catalog.AnyStaff || b == catalog.AnyStaff {
		return false
	}
	return a == b
}

// roomFree reports whether the room can host the span on the date,
// honoring both overlap and buffer constraints. Used by the resolver
// when choosing among candidate rooms.
func roomFree(roomID string, date string, span Interval, existing []BookingRef, bufferMinutes int) bool {
	for _, b := range existing {
		if b.Status == statusCancelled || b.Date != date || b.RoomID != roomID {
			continue
		}
		if span.Overlaps(b.Span) || span.WithinBuffer(b.Span, bufferMinutes) {
			return false
		}
	}
	return true
}

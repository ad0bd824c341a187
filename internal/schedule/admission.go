package schedule

import (
	"errors"
	"fmt"

	"github.com/serenity-spa/booking-platform/internal/catalog"
)

// Rejection reasons beyond resolution failures and conflict kinds.
const (
	RejectStaffUnavailable  = "staff_unavailable"
	RejectStaffNotQualified = "staff_not_qualified"
	RejectOutsideHours      = "outside_business_hours"
)

// AdmissionRequest is a proposed booking. StaffID may be a concrete
// staff id or the catalog.AnyStaff sentinel (empty means any). RoomID
// is normally empty and resolved by policy; a concrete RoomID pins the
// booking to that room, as the admin panel does.
type AdmissionRequest struct {
	ServiceID string
	StaffID   string
	RoomID    string
	Date      string
	Start     string
}

// AdmissionResult is the accept/reject decision for a candidate
// booking. Rejections carry a machine-readable reason plus either the
// full conflict breakdown or the room-resolution failure.
type AdmissionResult struct {
	Accepted  bool
	RoomID    string
	StaffID   string
	Date      string
	Start     ClockTime
	End       ClockTime
	Reason    string
	Conflicts Conflicts
	Failure   *ResolutionFailure
}

// Engine evaluates booking admission against a read-only catalog and
// scheduling policy. It performs no I/O; the caller fetches the
// bookings snapshot and persists accepted results.
type Engine struct {
	policy  Policy
	catalog *catalog.Catalog
}

// NewEngine constructs an admission engine.
func NewEngine(p Policy, cat *catalog.Catalog) *Engine {
	if cat == nil {
		panic("schedule: catalog required")
	}
	return &Engine{policy: p.withDefaults(), catalog: cat}
}

// Policy returns the engine's effective policy.
func (e *Engine) Policy() Policy { return e.policy }

// Admit decides whether a booking may be created. Malformed input and
// unknown reference ids are returned as errors; every other negative
// outcome is an ordinary rejection. The decision is pure: the same
// request against the same snapshot always yields the same result.
func (e *Engine) Admit(req AdmissionRequest, existing []BookingRef) (AdmissionResult, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return AdmissionResult{}, err
	}
	start, err := ParseClock(req.Start)
	if err != nil {
		return AdmissionResult{}, err
	}
	svc, err := e.catalog.Service(req.ServiceID)
	if err != nil {
		return AdmissionResult{}, err
	}

	staffID := req.StaffID
	if staffID == "" {
		staffID = catalog.AnyStaff
	}
	var staff *catalog.Staff
	if staffID != catalog.AnyStaff {
		member, err := e.catalog.Staff(staffID)
		if err != nil {
			return AdmissionResult{}, err
		}
		staff = &member
	}

	span, err := NewInterval(start, svc.DurationMinutes)
	if err != nil {
		return AdmissionResult{}, err
	}

	base := AdmissionResult{
		StaffID: staffID,
		Date:    date,
		Start:   span.Start,
		End:     span.End,
	}

	if staff != nil {
		if !staff.CanPerform(svc.Category) {
			base.Reason = RejectStaffNotQualified
			return base, nil
		}
		day, err := Weekday(date)
		if err != nil {
			return AdmissionResult{}, err
		}
		if staff.IsOff(day) {
			base.Reason = RejectStaffUnavailable
			return base, nil
		}
	}

	if e.policy.Hours != nil {
		day, err := Weekday(date)
		if err != nil {
			return AdmissionResult{}, err
		}
		if !e.policy.Hours.Contains(day, span) {
			base.Reason = RejectOutsideHours
			return base, nil
		}
	}

	roomID := req.RoomID
	if roomID != "" {
		if _, err := e.catalog.Room(roomID); err != nil {
			return AdmissionResult{}, err
		}
	} else {
		resolved, failure := ResolveRoom(e.policy, e.catalog, svc, staff, date, span, existing)
		if failure != nil {
			base.Reason = string(failure.Reason)
			base.Failure = failure
			return base, nil
		}
		roomID = resolved
	}
	base.RoomID = roomID

	conflicts := FindConflicts(Candidate{
		RoomID:  roomID,
		StaffID: staffID,
		Date:    date,
		Span:    span,
	}, existing, e.policy.BufferMinutes)
	if !conflicts.Empty() {
		base.Reason = string(conflicts.PrimarySource())
		base.Conflicts = conflicts
		return base, nil
	}

	base.Accepted = true
	return base, nil
}

// IsReferenceError reports whether the error is a bad reference id
// rather than malformed input.
func IsReferenceError(err error) bool {
	return errors.Is(err, catalog.ErrServiceNotFound) ||
		errors.Is(err, catalog.ErrStaffNotFound) ||
		errors.Is(err, catalog.ErrRoomNotFound)
}

// RejectionMessage renders a short human-readable explanation for a
// rejected result, suitable for API responses.
func RejectionMessage(res AdmissionResult) string {
	switch res.Reason {
	case string(ConflictRoom):
		return fmt.Sprintf("room %s is already booked at %s", res.RoomID, res.Start)
	case string(ConflictStaff):
		return fmt.Sprintf("staff %s is already booked at %s", res.StaffID, res.Start)
	case string(ConflictBuffer):
		return fmt.Sprintf("room %s needs more turnaround time around %s", res.RoomID, res.Start)
	case RejectStaffUnavailable:
		return "the requested staff member is off that day"
	case RejectStaffNotQualified:
		return "the requested staff member does not perform this service"
	case RejectOutsideHours:
		return "the requested time is outside opening hours"
	default:
		if res.Failure != nil {
			return res.Failure.Detail
		}
		return "the requested time is not available"
	}
}

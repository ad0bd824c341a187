package schedule

import (
	"fmt"
	"slices"

	"github.com/serenity-spa/booking-platform/internal/catalog"
)

// ResolutionReason is a machine-readable room-resolution failure cause.
type ResolutionReason string

const (
	// ReasonNoCapableRoom: no room can host this service right now.
	// Couples services that find every preferred couples room taken
	// report this reason; a couples booking is never degraded to a
	// single-occupancy room.
	ReasonNoCapableRoom ResolutionReason = "no_capable_room"
	// ReasonCapacityInsufficient: rooms exist but none fit the party.
	ReasonCapacityInsufficient ResolutionReason = "capacity_insufficient"
	// ReasonAllConflicted: capable rooms exist but every one is taken
	// for the requested interval.
	ReasonAllConflicted ResolutionReason = "all_conflicted"
)

// ResolutionFailure explains why no room could be assigned.
type ResolutionFailure struct {
	Reason ResolutionReason
	Detail string
}

func (f *ResolutionFailure) Error() string {
	return fmt.Sprintf("schedule: room resolution failed (%s): %s", f.Reason, f.Detail)
}

// ResolveRoom picks the room for a service request, in policy priority
// order:
//
//  1. Services needing the scrub room get exactly that room or fail.
//     The room comes from policy, or failing that the room tagged
//     scrub-capable.
//  2. Couples services try the configured couples rooms in order, or
//     the rooms tagged couples-capable when no order is configured,
//     and never fall back to a single room.
//  3. A concrete preferred staff member's default room is used when
//     free.
//  4. Otherwise the first free capable room wins, staff affinity
//     first, then lowest room id.
//
// A room is considered free only when the full interval, expanded by
// the buffer, is clear. staff may be nil when the request carries the
// any-available sentinel.
func ResolveRoom(p Policy, cat *catalog.Catalog, svc catalog.Service, staff *catalog.Staff, date string, span Interval, existing []BookingRef) (string, *ResolutionFailure) {
	p = p.withDefaults()

	if svc.RequiresSpecialRoom {
		return resolveSpecialRoom(p, cat, svc, date, span, existing)
	}
	if svc.IsCouplesService {
		return resolveCouplesRoom(p, cat, svc, date, span, existing)
	}

	if staff != nil && staff.DefaultRoomID != "" {
		if room, err := cat.Room(staff.DefaultRoomID); err == nil && !scrubReserved(p, room) {
			if roomFree(room.ID, date, span, existing, p.BufferMinutes) {
				return room.ID, nil
			}
		}
	}

	return resolveGeneralRoom(p, cat, staff, date, span, existing)
}

// scrubReserved reports whether a room is held back for scrub
// services, by policy designation or by its capability tag.
func scrubReserved(p Policy, room catalog.Room) bool {
	return room.ID == p.SpecialRoomID || room.HasTag(catalog.TagScrubCapable)
}

func resolveSpecialRoom(p Policy, cat *catalog.Catalog, svc catalog.Service, date string, span Interval, existing []BookingRef) (string, *ResolutionFailure) {
	roomID := p.SpecialRoomID
	if roomID == "" {
		// No designated room configured; the catalog tag decides.
		for _, room := range cat.Rooms() {
			if room.HasTag(catalog.TagScrubCapable) {
				roomID = room.ID
				break
			}
		}
	}
	if roomID == "" {
		return "", &ResolutionFailure{
			Reason: ReasonNoCapableRoom,
			Detail: fmt.Sprintf("service %s needs the scrub room but none is designated or tagged", svc.ID),
		}
	}
	room, err := cat.Room(roomID)
	if err != nil {
		return "", &ResolutionFailure{
			Reason: ReasonNoCapableRoom,
			Detail: fmt.Sprintf("designated scrub room %s is not in the catalog", roomID),
		}
	}
	// No fallback: either the designated room is free or the booking fails.
	if !roomFree(room.ID, date, span, existing, p.BufferMinutes) {
		return "", &ResolutionFailure{
			Reason: ReasonAllConflicted,
			Detail: fmt.Sprintf("scrub room %s is taken at %s", room.ID, span.Start),
		}
	}
	return room.ID, nil
}

func resolveCouplesRoom(p Policy, cat *catalog.Catalog, svc catalog.Service, date string, span Interval, existing []BookingRef) (string, *ResolutionFailure) {
	candidates := make([]catalog.Room, 0, len(p.CouplesRoomOrder))
	for _, roomID := range p.CouplesRoomOrder {
		room, err := cat.Room(roomID)
		if err != nil {
			continue
		}
		candidates = append(candidates, room)
	}
	if len(candidates) == 0 {
		// No order configured; rooms tagged couples-capable serve in id
		// order.
		for _, room := range cat.Rooms() {
			if room.HasTag(catalog.TagCouplesCapable) {
				candidates = append(candidates, room)
			}
		}
	}

	sawCapacity := false
	for _, room := range candidates {
		if room.Capacity < 2 {
			continue
		}
		sawCapacity = true
		if roomFree(room.ID, date, span, existing, p.BufferMinutes) {
			return room.ID, nil
		}
	}
	if len(candidates) > 0 && !sawCapacity {
		return "", &ResolutionFailure{
			Reason: ReasonCapacityInsufficient,
			Detail: fmt.Sprintf("no configured couples room fits two guests for service %s", svc.ID),
		}
	}
	// Strict policy: a couples booking with every couples room taken is
	// rejected outright, never shifted into a single room.
	return "", &ResolutionFailure{
		Reason: ReasonNoCapableRoom,
		Detail: fmt.Sprintf("no couples room available for service %s at %s", svc.ID, span.Start),
	}
}

func resolveGeneralRoom(p Policy, cat *catalog.Catalog, staff *catalog.Staff, date string, span Interval, existing []BookingRef) (string, *ResolutionFailure) {
	rooms := cat.Rooms()
	candidates := make([]catalog.Room, 0, len(rooms))
	for _, room := range rooms {
		// Scrub rooms are reserved for scrub services.
		if scrubReserved(p, room) {
			continue
		}
		if room.Capacity < 1 {
			continue
		}
		candidates = append(candidates, room)
	}
	if len(candidates) == 0 {
		return "", &ResolutionFailure{
			Reason: ReasonNoCapableRoom,
			Detail: "no bookable room in the catalog",
		}
	}
	// Rooms() is id-ordered; moving the staff's default room to the
	// front keeps the remaining order as the deterministic tie-break.
	if staff != nil && staff.DefaultRoomID != "" {
		slices.SortStableFunc(candidates, func(a, b catalog.Room) int {
			switch {
			case a.ID == staff.DefaultRoomID:
				return -1
			case b.ID == staff.DefaultRoomID:
				return 1
			default:
				return 0
			}
		})
	}
	for _, room := range candidates {
		if roomFree(room.ID, date, span, existing, p.BufferMinutes) {
			return room.ID, nil
		}
	}
	return "", &ResolutionFailure{
		Reason: ReasonAllConflicted,
		Detail: fmt.Sprintf("every bookable room is taken at %s", span.Start),
	}
}

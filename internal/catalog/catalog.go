// Package catalog holds the spa's reference data: services, staff, and
// treatment rooms. The scheduling core reads this data and never
// mutates it.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// AnyStaff is the well-known sentinel meaning "no specific staff
// member requested". It never participates in staff-conflict checks.
const AnyStaff = "any_available"

// Room capability tags.
const (
	TagCouplesCapable = "couples-capable"
	TagScrubCapable   = "scrub-capable"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrStaffNotFound   = errors.New("staff not found")
	ErrRoomNotFound    = errors.New("room not found")
)

// Service is an immutable service offering.
type Service struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	DurationMinutes     int    `json:"duration_minutes"`
	Category            string `json:"category"`
	RequiresSpecialRoom bool   `json:"requires_special_room"`
	IsCouplesService    bool   `json:"is_couples_service"`
	AllowsAddons        bool   `json:"allows_addons"`
}

// Staff is a practitioner. Capabilities list the service categories
// they may perform; an empty list means unrestricted.
type Staff struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Capabilities  []string       `json:"capabilities,omitempty"`
	DefaultRoomID string         `json:"default_room_id,omitempty"`
	OffDays       []time.Weekday `json:"off_days,omitempty"`
}

// CanPerform reports whether the staff member may perform services in
// the given category.
func (s Staff) CanPerform(category string) bool {
	if len(s.Capabilities) == 0 {
		return true
	}
	return slices.Contains(s.Capabilities, category)
}

// IsOff reports whether the weekday is one of the staff's off-days.
func (s Staff) IsOff(day time.Weekday) bool {
	return slices.Contains(s.OffDays, day)
}

// Room is a treatment room.
type Room struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Tags     []string `json:"tags,omitempty"`
}

// HasTag reports whether the room carries a capability tag.
func (r Room) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// Catalog is an in-memory reference-data snapshot with id lookups.
type Catalog struct {
	services map[string]Service
	staff    map[string]Staff
	rooms    map[string]Room
}

// New builds a catalog from reference data slices.
func New(services []Service, staff []Staff, rooms []Room) *Catalog {
	c := &Catalog{
		services: make(map[string]Service, len(services)),
		staff:    make(map[string]Staff, len(staff)),
		rooms:    make(map[string]Room, len(rooms)),
	}
	for _, s := range services {
		c.services[s.ID] = s
	}
	for _, s := range staff {
		c.staff[s.ID] = s
	}
	for _, r := range rooms {
		c.rooms[r.ID] = r
	}
	return c
}

// Service looks up a service by id.
func (c *Catalog) Service(id string) (Service, error) {
	s, ok := c.services[id]
	if !ok {
		return Service{}, fmt.Errorf("catalog: service %q: %w", id, ErrServiceNotFound)
	}
	return s, nil
}

// Staff looks up a staff member by id. The AnyStaff sentinel is not a
// real staff member and is rejected here.
func (c *Catalog) Staff(id string) (Staff, error) {
	s, ok := c.staff[id]
	if !ok {
		return Staff{}, fmt.Errorf("catalog: staff %q: %w", id, ErrStaffNotFound)
	}
	return s, nil
}

// Room looks up a room by id.
func (c *Catalog) Room(id string) (Room, error) {
	r, ok := c.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("catalog: room %q: %w", id, ErrRoomNotFound)
	}
	return r, nil
}

// Rooms returns all rooms ordered by id so room selection is
// deterministic.
func (c *Catalog) Rooms() []Room {
	out := make([]Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Room) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Services returns all services ordered by id.
func (c *Catalog) Services() []Service {
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Service) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// StaffMembers returns all staff ordered by id.
func (c *Catalog) StaffMembers() []Staff {
	out := make([]Staff, 0, len(c.staff))
	for _, s := range c.staff {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Staff) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

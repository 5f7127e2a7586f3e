package hub

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// TeamFilter narrows a team member lookup.
type TeamFilter string

const (
	// TeamAll returns every team member.
	TeamAll TeamFilter = "all"

	// TeamManagersOnly returns members with the manager role.
	TeamManagersOnly TeamFilter = "managers_only"
)

// AddGuest appends a new guest to the roster. The email must not already be
// present (case-insensitive compare); on conflict the roster is unchanged and
// *DuplicateEmailError is returned.
func (f *FlaggedAlert) AddGuest(email, name string) (*Guest, error) {
	for i := range f.Guests {
		if strings.EqualFold(f.Guests[i].Email, email) {
			return nil, &DuplicateEmailError{Email: email}
		}
	}
	g := Guest{
		ID:    ulid.Make().String(),
		Email: email,
		Name:  name,
	}
	f.Guests = append(f.Guests, g)
	return &f.Guests[len(f.Guests)-1], nil
}

// GuestsByIDs returns the guests matching the given IDs, in roster order.
// Unknown IDs are skipped.
func (f *FlaggedAlert) GuestsByIDs(ids []string) []Guest {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Guest
	for _, g := range f.Guests {
		if want[g.ID] {
			out = append(out, g)
		}
	}
	return out
}

// AllGuests returns a copy of the guest roster.
func (f *FlaggedAlert) AllGuests() []Guest {
	out := make([]Guest, len(f.Guests))
	copy(out, f.Guests)
	return out
}

// Team returns team members matching the filter.
func (f *FlaggedAlert) Team(filter TeamFilter) []TeamMember {
	var out []TeamMember
	for _, m := range f.TeamMembers {
		if filter == TeamManagersOnly && m.Role != RoleManager {
			continue
		}
		out = append(out, m)
	}
	return out
}

// MarkGuestsNotified records a delivery to the given guests. Idempotent:
// repeated calls only refresh the timestamp.
func (f *FlaggedAlert) MarkGuestsNotified(ids []string, at time.Time) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range f.Guests {
		if want[f.Guests[i].ID] {
			t := at
			f.Guests[i].NotificationSent = true
			f.Guests[i].LastNotifiedAt = &t
		}
	}
}

// MarkTeamNotified records a delivery to the given team members. Idempotent.
func (f *FlaggedAlert) MarkTeamNotified(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range f.TeamMembers {
		if want[f.TeamMembers[i].ID] {
			f.TeamMembers[i].Notified = true
		}
	}
}

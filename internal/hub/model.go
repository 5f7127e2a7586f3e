package hub

import "time"

// Role is a team member's role within the responding team.
type Role string

const (
	// RoleStaff is a regular team member.
	RoleStaff Role = "staff"

	// RoleManager can be targeted separately via the management notify target.
	RoleManager Role = "manager"
)

// TargetType selects which roster slice a notify call fans out to.
type TargetType string

const (
	// TargetGuests sends to every guest on the roster, including guests
	// that have already been notified (resend is allowed).
	TargetGuests TargetType = "guests"

	// TargetTeam sends to all team members.
	TargetTeam TargetType = "team"

	// TargetManagement sends to team members with the manager role only.
	TargetManagement TargetType = "management"
)

// Snapshot is the read-only view of the source alert captured when it was
// flagged. The alert feed owns these fields; the hub never mutates them.
type Snapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Impact      string    `json:"impact"`
}

// Guest is an ad-hoc notification recipient added to one flagged alert.
type Guest struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	NotificationSent bool       `json:"notification_sent"`
	LastNotifiedAt   *time.Time `json:"last_notified_at,omitempty"`
}

// TeamMember is an internal recipient provisioned outside this engine.
// The hub reads and targets team members but never creates them.
type TeamMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Notified bool   `json:"notified"`
}

// FlaggedAlert is the aggregate root: one source alert escalated into the
// workflow, with its status, follow state, and recipient rosters. Audit
// entries live in the store, keyed by the aggregate ID.
type FlaggedAlert struct {
	ID            string       `json:"id"`
	SourceAlertID string       `json:"source_alert_id"`
	Snapshot      Snapshot     `json:"snapshot"`
	Status        Status       `json:"status"`
	Following     bool         `json:"following"`
	FollowerCount int          `json:"follower_count"`
	Guests        []Guest      `json:"guests"`
	TeamMembers   []TeamMember `json:"team_members"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand aggregates across goroutines
// without sharing roster slices.
func (f *FlaggedAlert) Clone() *FlaggedAlert {
	cp := *f
	cp.Guests = make([]Guest, len(f.Guests))
	copy(cp.Guests, f.Guests)
	cp.TeamMembers = make([]TeamMember, len(f.TeamMembers))
	copy(cp.TeamMembers, f.TeamMembers)
	for i := range cp.Guests {
		if f.Guests[i].LastNotifiedAt != nil {
			t := *f.Guests[i].LastNotifiedAt
			cp.Guests[i].LastNotifiedAt = &t
		}
	}
	return &cp
}

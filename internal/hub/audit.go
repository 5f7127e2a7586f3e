package hub

import (
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/oklog/ulid/v2"
)

// ActionType classifies an audit entry.
type ActionType string

const (
	ActionFollowStarted ActionType = "follow_started"
	ActionFollowStopped ActionType = "follow_stopped"
	ActionStatusChanged ActionType = "status_changed"
	ActionGuestAdded    ActionType = "guest_added"
	ActionNotifyGuests  ActionType = "notify_guests"
	ActionNotifyTeam    ActionType = "notify_team"
)

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionFollowStarted, ActionFollowStopped, ActionStatusChanged,
		ActionGuestAdded, ActionNotifyGuests, ActionNotifyTeam:
		return true
	}
	return false
}

// Field keys for the structured side of an audit entry.
const (
	FieldPreviousStatus = "previous_status"
	FieldNewStatus      = "new_status"
	FieldEmail          = "email"
	FieldSuccessCount   = "success_count"
	FieldFailureCount   = "failure_count"
	FieldTarget         = "target"
)

// AuditEntry is one immutable record of an action taken against a flagged
// alert. Entries are never edited or deleted; they are ordered by timestamp
// with the store-assigned Seq as tie-break within equal timestamps.
type AuditEntry struct {
	ID         string         `json:"id"`
	HubID      string         `json:"hub_id"`
	Seq        int64          `json:"seq"`
	ActionType ActionType     `json:"action_type"`
	Actor      string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    string         `json:"details"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// NewAuditEntry builds an entry for the given action, rendering Details from
// the structured fields. Seq is zero until the store assigns it on append.
// An unknown action type is a programming error and panics.
func NewAuditEntry(hubID string, action ActionType, actor string, fields map[string]any) *AuditEntry {
	return &AuditEntry{
		ID:         ulid.Make().String(),
		HubID:      hubID,
		ActionType: action,
		Actor:      actor,
		Timestamp:  time.Now(),
		Details:    renderDetails(action, fields),
		Fields:     fields,
	}
}

// renderDetails produces the stable human-readable form of an entry. The
// templates are fixed per action type so the trail reads consistently.
func renderDetails(action ActionType, fields map[string]any) string {
	switch action {
	case ActionFollowStarted:
		return "started following"
	case ActionFollowStopped:
		return "stopped following"
	case ActionStatusChanged:
		return fmt.Sprintf("changed status from %v to %v",
			fields[FieldPreviousStatus], fields[FieldNewStatus])
	case ActionGuestAdded:
		return fmt.Sprintf("added guest %v", fields[FieldEmail])
	case ActionNotifyGuests:
		return fmt.Sprintf("sent alert to %v guests (%v failed)",
			fields[FieldSuccessCount], fields[FieldFailureCount])
	case ActionNotifyTeam:
		return fmt.Sprintf("sent alert to %v team members (%v failed)",
			fields[FieldSuccessCount], fields[FieldFailureCount])
	}
	panic(xerrors.New("unknown audit action type: " + string(action)))
}

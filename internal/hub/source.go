package hub

import "context"

// AlertSource is the external alert feed the hub snapshots flagged alerts
// from. Read-only, queried by source alert ID.
type AlertSource interface {
	// Snapshot returns the immutable fields of a source alert. The second
	// return is false when the feed has no alert for the ID.
	Snapshot(ctx context.Context, sourceAlertID string) (*Snapshot, bool, error)
}

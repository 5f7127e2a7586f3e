package hub

import "context"

// Store is the persistence interface for flagged alert aggregates and their
// audit trails.
type Store interface {
	// Get retrieves an aggregate by ID. The second return is false when no
	// aggregate exists for the ID.
	Get(ctx context.Context, id string) (*FlaggedAlert, bool, error)

	// Put inserts or replaces an aggregate.
	Put(ctx context.Context, f *FlaggedAlert) error

	// AppendAudit persists an audit entry, assigning and returning a
	// monotonically increasing sequence number scoped to the store. Entries
	// are immutable once appended.
	AppendAudit(ctx context.Context, e *AuditEntry) (seq int64, err error)

	// AuditTrail returns the entries for one aggregate ordered oldest to
	// newest (timestamp, then sequence number). Each call is a fresh read.
	AuditTrail(ctx context.Context, hubID string) ([]*AuditEntry, error)
}

// Package pgstore provides a PostgreSQL implementation of hub.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

var tracer = otel.Tracer("github.com/linnemanlabs/actionhub/internal/hub/pgstore")

//go:embed schema.sql
var schema string

// Store persists flagged alerts and audit trails in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const alertColumns = `id, source_alert_id, title, description, city, window_start, window_end,
	impact, status, following, follower_count, guests, team_members, created_at, updated_at`

// Get retrieves a flagged alert by ID.
func (s *Store) Get(ctx context.Context, id string) (*hub.FlaggedAlert, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM flagged_alerts WHERE id = $1`
	f, err := scanAlertRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if f == nil {
		return nil, false, nil
	}
	return f, true, nil
}

// Put inserts or updates a flagged alert.
func (s *Store) Put(ctx context.Context, f *hub.FlaggedAlert) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	guestsJSON, err := json.Marshal(f.Guests)
	if err != nil {
		return fmt.Errorf("marshal guests: %w", err)
	}
	teamJSON, err := json.Marshal(f.TeamMembers)
	if err != nil {
		return fmt.Errorf("marshal team members: %w", err)
	}

	var windowStart, windowEnd *time.Time
	if !f.Snapshot.WindowStart.IsZero() {
		windowStart = &f.Snapshot.WindowStart
	}
	if !f.Snapshot.WindowEnd.IsZero() {
		windowEnd = &f.Snapshot.WindowEnd
	}

	query := `INSERT INTO flagged_alerts (
		id, source_alert_id, title, description, city, window_start, window_end,
		impact, status, following, follower_count, guests, team_members, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	ON CONFLICT (id) DO UPDATE SET
		status         = EXCLUDED.status,
		following      = EXCLUDED.following,
		follower_count = EXCLUDED.follower_count,
		guests         = EXCLUDED.guests,
		team_members   = EXCLUDED.team_members,
		updated_at     = EXCLUDED.updated_at`

	_, err = s.pool.Exec(ctx, query,
		f.ID, f.SourceAlertID, f.Snapshot.Title, f.Snapshot.Description, f.Snapshot.City,
		windowStart, windowEnd, f.Snapshot.Impact, string(f.Status), f.Following,
		f.FollowerCount, guestsJSON, teamJSON, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert flagged alert: %w", err)
	}
	return nil
}

// AppendAudit inserts an audit entry and returns the database-assigned
// sequence number. Audit rows are insert-only.
func (s *Store) AppendAudit(ctx context.Context, e *hub.AuditEntry) (int64, error) {
	ctx, span := tracer.Start(ctx, "pgstore.AppendAudit", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	fieldsJSON, err := json.Marshal(e.Fields)
	if err != nil {
		return 0, fmt.Errorf("marshal fields: %w", err)
	}

	var seq int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO audit_entries (id, hub_id, action_type, actor, created_at, details, fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		e.ID, e.HubID, string(e.ActionType), e.Actor, e.Timestamp, e.Details, fieldsJSON,
	).Scan(&seq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}

	e.Seq = seq
	return seq, nil
}

// AuditTrail returns the entries for one aggregate, oldest first.
func (s *Store) AuditTrail(ctx context.Context, hubID string) ([]*hub.AuditEntry, error) {
	ctx, span := tracer.Start(ctx, "pgstore.AuditTrail", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT seq, id, hub_id, action_type, actor, created_at, details, fields
		 FROM audit_entries WHERE hub_id = $1 ORDER BY created_at, seq`,
		hubID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []*hub.AuditEntry
	for rows.Next() {
		var (
			e          hub.AuditEntry
			actionType string
			fieldsJSON []byte
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.HubID, &actionType, &e.Actor, &e.Timestamp, &e.Details, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActionType = hub.ActionType(actionType)
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields seq %d: %w", e.Seq, err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

// scanAlertRow scans a single row into a hub.FlaggedAlert.
// Returns (nil, nil) when no row is found.
func scanAlertRow(row pgx.Row) (*hub.FlaggedAlert, error) {
	var (
		f           hub.FlaggedAlert
		status      string
		windowStart *time.Time
		windowEnd   *time.Time
		guestsJSON  []byte
		teamJSON    []byte
	)

	err := row.Scan(
		&f.ID, &f.SourceAlertID, &f.Snapshot.Title, &f.Snapshot.Description, &f.Snapshot.City,
		&windowStart, &windowEnd, &f.Snapshot.Impact, &status, &f.Following,
		&f.FollowerCount, &guestsJSON, &teamJSON, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	f.Status = hub.Status(status)
	if windowStart != nil {
		f.Snapshot.WindowStart = *windowStart
	}
	if windowEnd != nil {
		f.Snapshot.WindowEnd = *windowEnd
	}
	if err := json.Unmarshal(guestsJSON, &f.Guests); err != nil {
		return nil, fmt.Errorf("unmarshal guests: %w", err)
	}
	if err := json.Unmarshal(teamJSON, &f.TeamMembers); err != nil {
		return nil, fmt.Errorf("unmarshal team members: %w", err)
	}

	return &f, nil
}

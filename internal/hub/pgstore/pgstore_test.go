package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/actionhub/internal/hub"
	"github.com/linnemanlabs/actionhub/internal/hub/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("ACTIONHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ACTIONHUB_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func sampleAlert(id string, now time.Time) *hub.FlaggedAlert {
	return &hub.FlaggedAlert{
		ID:            id,
		SourceAlertID: "al-" + id,
		Snapshot: hub.Snapshot{
			Title:       "Water main break",
			Description: "Supply interrupted on the east grid",
			City:        "Utrecht",
			WindowStart: now,
			WindowEnd:   now.Add(4 * time.Hour),
			Impact:      "no supply",
		},
		Status:        hub.StatusNew,
		FollowerCount: 0,
		Guests: []hub.Guest{
			{ID: "g-1", Email: "resident@example.com", Name: "Resident"},
		},
		TeamMembers: []hub.TeamMember{
			{ID: "tm-1", Name: "Ops Lead", Email: "lead@example.com", Role: hub.RoleManager},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	f := sampleAlert("test-put-get-001", now)

	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "ID", f.ID, got.ID)
	assertEqual(t, "SourceAlertID", f.SourceAlertID, got.SourceAlertID)
	assertEqual(t, "Title", f.Snapshot.Title, got.Snapshot.Title)
	assertEqual(t, "City", f.Snapshot.City, got.Snapshot.City)
	assertEqual(t, "Impact", f.Snapshot.Impact, got.Snapshot.Impact)
	assertEqual(t, "Status", string(f.Status), string(got.Status))
	assertEqual(t, "FollowerCount", f.FollowerCount, got.FollowerCount)
	if !got.Snapshot.WindowStart.Equal(f.Snapshot.WindowStart) {
		t.Errorf("WindowStart: got %v, want %v", got.Snapshot.WindowStart, f.Snapshot.WindowStart)
	}
	if len(got.Guests) != 1 || got.Guests[0].Email != "resident@example.com" {
		t.Errorf("Guests mismatch: got %v", got.Guests)
	}
	if len(got.TeamMembers) != 1 || got.TeamMembers[0].Role != hub.RoleManager {
		t.Errorf("TeamMembers mismatch: got %v", got.TeamMembers)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "nonexistent-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get returned ok=true for nonexistent ID")
	}
}

func TestUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	f := sampleAlert("test-upsert-001", now)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put initial: %v", err)
	}

	notifiedAt := now.Add(time.Minute)
	f.Status = hub.StatusInProgress
	f.Following = true
	f.FollowerCount = 3
	f.Guests[0].NotificationSent = true
	f.Guests[0].LastNotifiedAt = &notifiedAt
	f.TeamMembers[0].Notified = true
	f.UpdatedAt = notifiedAt

	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, ok, err := s.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false after upsert")
	}

	assertEqual(t, "Status", string(hub.StatusInProgress), string(got.Status))
	assertEqual(t, "Following", true, got.Following)
	assertEqual(t, "FollowerCount", 3, got.FollowerCount)
	if !got.Guests[0].NotificationSent {
		t.Error("guest NotificationSent not persisted")
	}
	if got.Guests[0].LastNotifiedAt == nil || !got.Guests[0].LastNotifiedAt.Equal(notifiedAt) {
		t.Errorf("guest LastNotifiedAt: got %v, want %v", got.Guests[0].LastNotifiedAt, notifiedAt)
	}
	if !got.TeamMembers[0].Notified {
		t.Error("team member Notified not persisted")
	}
}

func TestAppendAuditAssignsSeq(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	f := sampleAlert("test-audit-seq-001", now)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var prev int64
	for i := 0; i < 3; i++ {
		e := hub.NewAuditEntry(f.ID, hub.ActionFollowStarted, "ops", nil)
		seq, err := s.AppendAudit(ctx, e)
		if err != nil {
			t.Fatalf("AppendAudit %d: %v", i, err)
		}
		if seq <= prev {
			t.Errorf("seq %d not greater than previous %d", seq, prev)
		}
		if e.Seq != seq {
			t.Errorf("entry.Seq = %d, want %d", e.Seq, seq)
		}
		prev = seq
	}
}

func TestAuditTrailRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	f := sampleAlert("test-audit-trail-001", now)
	if err := s.Put(ctx, f); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries := []*hub.AuditEntry{
		hub.NewAuditEntry(f.ID, hub.ActionStatusChanged, "ops", map[string]any{
			hub.FieldPreviousStatus: "new",
			hub.FieldNewStatus:      "in_progress",
		}),
		hub.NewAuditEntry(f.ID, hub.ActionGuestAdded, "ops", map[string]any{
			hub.FieldEmail: "resident@example.com",
		}),
	}
	for i, e := range entries {
		if _, err := s.AppendAudit(ctx, e); err != nil {
			t.Fatalf("AppendAudit %d: %v", i, err)
		}
	}

	got, err := s.AuditTrail(ctx, f.ID)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("AuditTrail returned %d entries, want 2", len(got))
	}

	assertEqual(t, "entry[0].ActionType", string(hub.ActionStatusChanged), string(got[0].ActionType))
	assertEqual(t, "entry[0].Details", entries[0].Details, got[0].Details)
	assertEqual(t, "entry[1].ActionType", string(hub.ActionGuestAdded), string(got[1].ActionType))
	if got[0].Fields[hub.FieldNewStatus] != "in_progress" {
		t.Errorf("entry[0] new status field: got %v", got[0].Fields[hub.FieldNewStatus])
	}
	if got[1].Fields[hub.FieldEmail] != "resident@example.com" {
		t.Errorf("entry[1] email field: got %v", got[1].Fields[hub.FieldEmail])
	}
	if got[0].Seq >= got[1].Seq {
		t.Errorf("entries out of order: seq %d before %d", got[0].Seq, got[1].Seq)
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}

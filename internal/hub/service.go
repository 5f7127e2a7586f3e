package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// Service is the coordinator: the only surface the API layer talks to. It
// validates requests, mutates aggregates, invokes the dispatcher, and appends
// exactly one audit entry per logical action.
//
// Mutating operations on the same aggregate ID are serialized by a per-ID
// mutex; operations on different aggregates are fully independent. Notify
// fans out internally but is one atomic unit from the aggregate's view.
type Service struct {
	store      Store
	dispatcher *Dispatcher
	source     AlertSource
	logger     log.Logger
	metrics    *Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the coordinator. metrics may be nil.
func NewService(store Store, dispatcher *Dispatcher, source AlertSource, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		source:     source,
		logger:     logger,
		metrics:    metrics,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on one aggregate ID.
func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Flag escalates a source alert into the workflow, snapshotting its read-only
// fields from the alert feed. The new aggregate starts in StatusNew with an
// empty guest roster. Team members are provisioned outside this engine; the
// flagging caller passes the roster in.
func (s *Service) Flag(ctx context.Context, sourceAlertID, actor string, team []TeamMember) (*FlaggedAlert, error) {
	snap, ok, err := s.source.Snapshot(ctx, sourceAlertID)
	if err != nil {
		return nil, fmt.Errorf("snapshot source alert %s: %w", sourceAlertID, err)
	}
	if !ok {
		return nil, fmt.Errorf("source alert %s: %w", sourceAlertID, ErrNotFound)
	}

	now := time.Now()
	f := &FlaggedAlert{
		ID:            ulid.Make().String(),
		SourceAlertID: sourceAlertID,
		Snapshot:      *snap,
		Status:        StatusNew,
		TeamMembers:   team,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Put(ctx, f); err != nil {
		return nil, fmt.Errorf("put flagged alert: %w", err)
	}

	s.logger.Info(ctx, "alert flagged", "hub_id", f.ID, "source_alert_id", sourceAlertID, "actor", actor)
	return f, nil
}

// GetDetail retrieves an aggregate by ID. Read only, no audit entry.
func (s *Service) GetDetail(ctx context.Context, id string) (*FlaggedAlert, error) {
	f, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// ToggleFollow flips the actor's follow state and adjusts the follower
// count. Legal in any status, terminal ones included.
func (s *Service) ToggleFollow(ctx context.Context, id, actor string) (*FlaggedAlert, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	f, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	next, delta := ToggleFollow(f.Following)
	f.Following = next
	f.FollowerCount += delta
	if f.FollowerCount < 0 {
		f.FollowerCount = 0
	}
	f.UpdatedAt = time.Now()

	if err := s.store.Put(ctx, f); err != nil {
		return nil, fmt.Errorf("put flagged alert: %w", err)
	}

	action := ActionFollowStopped
	if next {
		action = ActionFollowStarted
	}
	if err := s.appendAudit(ctx, NewAuditEntry(id, action, actor, nil)); err != nil {
		return nil, err
	}

	s.observeAction(string(action))
	return f, nil
}

// SetStatus moves the aggregate through the status state machine. An illegal
// transition returns *InvalidTransitionError and leaves the aggregate
// untouched.
func (s *Service) SetStatus(ctx context.Context, id string, target Status, actor string) (*FlaggedAlert, error) {
	if !target.Valid() {
		return nil, &InvalidTransitionError{To: target}
	}

	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	f, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	previous := f.Status
	next, err := Transition(previous, target)
	if err != nil {
		return nil, err
	}

	f.Status = next
	f.UpdatedAt = time.Now()
	if err := s.store.Put(ctx, f); err != nil {
		return nil, fmt.Errorf("put flagged alert: %w", err)
	}

	entry := NewAuditEntry(id, ActionStatusChanged, actor, map[string]any{
		FieldPreviousStatus: string(previous),
		FieldNewStatus:      string(next),
	})
	if err := s.appendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.observeAction(string(ActionStatusChanged))
	s.logger.Info(ctx, "status changed", "hub_id", id, "from", previous, "to", next, "actor", actor)
	return f, nil
}

// AddGuest appends an ad-hoc recipient to the roster. A duplicate email
// (case-insensitive) returns *DuplicateEmailError with the roster unchanged.
func (s *Service) AddGuest(ctx context.Context, id, email, name, actor string) (*FlaggedAlert, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	f, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	g, err := f.AddGuest(email, name)
	if err != nil {
		return nil, err
	}
	f.UpdatedAt = time.Now()

	if err := s.store.Put(ctx, f); err != nil {
		return nil, fmt.Errorf("put flagged alert: %w", err)
	}

	entry := NewAuditEntry(id, ActionGuestAdded, actor, map[string]any{
		FieldEmail: g.Email,
	})
	if err := s.appendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.observeAction(string(ActionGuestAdded))
	return f, nil
}

// Notify resolves the target roster slice, fans the message out through the
// dispatcher, marks successfully notified recipients, and audits the
// outcome. A partially failed dispatch is a successful call: the counts in
// the returned DispatchResult are first-class output, not an error.
//
// An empty resolved recipient set returns *NoEligibleRecipientsError before
// anything is dispatched, mutated, or audited.
func (s *Service) Notify(ctx context.Context, id string, target TargetType, message, actor string) (*DispatchResult, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	f, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	recipients, action, err := resolveRecipients(f, target)
	if err != nil {
		return nil, err
	}

	res := s.dispatcher.Dispatch(ctx, recipients, message)

	// Only recipients the provider accepted count as notified.
	var delivered []string
	for _, d := range res.PerRecipient {
		if d.Success {
			delivered = append(delivered, d.RecipientID)
		}
	}
	if target == TargetGuests {
		f.MarkGuestsNotified(delivered, time.Now())
	} else {
		f.MarkTeamNotified(delivered)
	}
	f.UpdatedAt = time.Now()

	if err := s.store.Put(ctx, f); err != nil {
		return nil, fmt.Errorf("put flagged alert: %w", err)
	}

	entry := NewAuditEntry(id, action, actor, map[string]any{
		FieldTarget:       string(target),
		FieldSuccessCount: res.SuccessCount,
		FieldFailureCount: res.FailureCount,
	})
	if err := s.appendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.observeAction(string(action))
	s.logger.Info(ctx, "notify complete",
		"hub_id", id,
		"target", target,
		"recipients", len(recipients),
		"success", res.SuccessCount,
		"failed", res.FailureCount,
	)
	return res, nil
}

// AuditTrail returns the aggregate's audit entries oldest to newest. Each
// call is a fresh read.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]*AuditEntry, error) {
	if _, ok, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotFound
	}
	return s.store.AuditTrail(ctx, id)
}

// resolveRecipients maps a notify target onto the roster. Guests are always
// all guests: resend to previously notified guests is allowed and expected.
func resolveRecipients(f *FlaggedAlert, target TargetType) ([]Recipient, ActionType, error) {
	var recipients []Recipient
	var action ActionType

	switch target {
	case TargetGuests:
		action = ActionNotifyGuests
		for _, g := range f.AllGuests() {
			recipients = append(recipients, Recipient{ID: g.ID, Address: g.Email, Name: g.Name})
		}
	case TargetTeam:
		action = ActionNotifyTeam
		for _, m := range f.Team(TeamAll) {
			recipients = append(recipients, Recipient{ID: m.ID, Address: m.Email, Name: m.Name})
		}
	case TargetManagement:
		action = ActionNotifyTeam
		for _, m := range f.Team(TeamManagersOnly) {
			recipients = append(recipients, Recipient{ID: m.ID, Address: m.Email, Name: m.Name})
		}
	default:
		return nil, "", fmt.Errorf("unknown notify target %q", target)
	}

	if len(recipients) == 0 {
		return nil, "", &NoEligibleRecipientsError{Target: target}
	}
	return recipients, action, nil
}

func (s *Service) appendAudit(ctx context.Context, e *AuditEntry) error {
	if _, err := s.store.AppendAudit(ctx, e); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *Service) observeAction(action string) {
	if s.metrics != nil {
		s.metrics.ActionsTotal.WithLabelValues(action).Inc()
	}
}

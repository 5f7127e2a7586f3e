// Package memstore provides an in-memory implementation of hub.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

// Store holds flagged alerts and audit trails in memory. Suitable for
// dev/testing.
type Store struct {
	mu      sync.RWMutex
	alerts  map[string]*hub.FlaggedAlert // hub ID -> aggregate
	trails  map[string][]*hub.AuditEntry // hub ID -> entries in append order
	nextSeq int64
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		alerts: make(map[string]*hub.FlaggedAlert),
		trails: make(map[string][]*hub.AuditEntry),
	}
}

// Get retrieves a flagged alert by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*hub.FlaggedAlert, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.alerts[id]
	if !ok {
		return nil, false, nil
	}
	return f.Clone(), true, nil
}

// Put stores a copy of the flagged alert.
func (s *Store) Put(_ context.Context, f *hub.FlaggedAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[f.ID] = f.Clone()
	return nil
}

// AppendAudit assigns the next sequence number and stores a copy of the
// entry. Entries are immutable once appended.
func (s *Store) AppendAudit(_ context.Context, e *hub.AuditEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	e.Seq = s.nextSeq
	cp := *e
	s.trails[e.HubID] = append(s.trails[e.HubID], &cp)
	return e.Seq, nil
}

// AuditTrail returns copies of the entries for one aggregate, oldest first,
// ordered by timestamp with sequence number as tie-break.
func (s *Store) AuditTrail(_ context.Context, hubID string) ([]*hub.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trail := s.trails[hubID]
	out := make([]*hub.AuditEntry, len(trail))
	for i, e := range trail {
		cp := *e
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

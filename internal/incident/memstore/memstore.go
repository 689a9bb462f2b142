// Package memstore provides an in-memory implementation of incident.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

// Store holds incident records in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*incident.Record // record ID -> record
	order   []string                    // record IDs in insertion order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*incident.Record),
	}
}

// Create stores a copy of the record and returns a synthetic object ID.
func (s *Store) Create(_ context.Context, r *incident.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.ObjectID = ulid.Make().String()
	s.records[r.ID] = &cp
	s.order = append(s.order, r.ID)
	return cp.ObjectID, nil
}

// Get retrieves a record by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*incident.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// Recent returns up to limit records, newest first. Returns copies.
func (s *Store) Recent(_ context.Context, limit int) ([]*incident.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]*incident.Record, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.records[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

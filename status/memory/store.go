// Package memory provides a fully in-memory status.Store. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/courierkit/courier"
	"github.com/courierkit/courier/status"
)

// Compile-time interface check.
var _ status.Store = (*Store)(nil)

// Store is an in-memory implementation of status.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*status.Record
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]*status.Record),
	}
}

// Get retrieves a copy of the record for the given key.
func (m *Store) Get(_ context.Context, key string) (*status.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("status/memory: key %q: %w", key, courier.ErrStatusNotFound)
	}

	return clone(rec), nil
}

// Set stores a copy of the record under the given key.
func (m *Store) Set(_ context.Context, key string, rec *status.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = clone(rec)
	return nil
}

// Len returns the number of stored records.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// clone copies a record so callers cannot mutate stored state.
func clone(rec *status.Record) *status.Record {
	cp := *rec
	if rec.Position != nil {
		p := *rec.Position
		cp.Position = &p
	}
	if rec.Data != nil {
		cp.Data = append(cp.Data[:0:0], rec.Data...)
	}
	return &cp
}

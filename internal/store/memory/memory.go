// Package memory is an in-process tabular store. It backs dry runs, local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/store"
)

// Store is a concurrency-safe in-memory store.Store.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]store.Fields
	order  map[string][]string

	// FailOn, when set, is consulted before every write; a non-nil error
	// fails that write. Used to exercise continue-on-error paths.
	FailOn func(op, table, id string, fields store.Fields) error
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		tables: map[string]map[string]store.Fields{},
		order:  map[string][]string{},
	}
}

// Seed inserts rows with fixed IDs.
func (s *Store) Seed(table string, records ...store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.put(table, r.ID, r.Fields.Clone())
	}
}

// List implements store.Store. Rows come back in insertion order.
func (s *Store) List(ctx context.Context, table string) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[table]
	out := make([]store.Record, 0, len(rows))
	for _, id := range s.order[table] {
		if f, ok := rows[id]; ok {
			out = append(out, store.Record{ID: id, Fields: f.Clone()})
		}
	}
	return out, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	if err := s.check(ctx, "create", table, "", fields); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := "rec" + uuid.NewString()[:8]
	s.put(table, id, fields.Clone())
	return store.Record{ID: id, Fields: fields.Clone()}, nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	if err := s.check(ctx, "update", table, id, fields); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tables[table][id]
	if !ok {
		return store.Record{}, errors.NewNotFoundError(table, id)
	}
	for k, v := range fields {
		row[k] = v
	}
	return store.Record{ID: id, Fields: row.Clone()}, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := s.check(ctx, "delete", table, id, nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table][id]; !ok {
		return errors.NewNotFoundError(table, id)
	}
	delete(s.tables[table], id)
	order := s.order[table][:0]
	for _, existing := range s.order[table] {
		if existing != id {
			order = append(order, existing)
		}
	}
	s.order[table] = order
	return nil
}

// Tables returns the names of tables holding at least one row.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name, rows := range s.tables {
		if len(rows) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Store) check(ctx context.Context, op, table, id string, fields store.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailOn != nil {
		if err := s.FailOn(op, table, id, fields); err != nil {
			return fmt.Errorf("%s %s: %w", op, table, err)
		}
	}
	return nil
}

func (s *Store) put(table, id string, fields store.Fields) {
	if s.tables[table] == nil {
		s.tables[table] = map[string]store.Fields{}
	}
	if _, exists := s.tables[table][id]; !exists {
		s.order[table] = append(s.order[table], id)
	}
	s.tables[table][id] = fields
}

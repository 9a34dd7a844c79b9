// Package memory provides an in-memory execution store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/actiond/actiond/internal/store"
	"github.com/actiond/actiond/pkg/errors"
)

// Compile-time interface assertion.
var _ store.ExecutionStore = (*Store)(nil)

// Store is an in-memory execution store. Insertion order is preserved
// for List.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*store.Execution
	ordered []string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{byID: make(map[string]*store.Execution)}
}

// Create persists a new execution record.
func (s *Store) Create(ctx context.Context, e *store.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[e.ID]; exists {
		return fmt.Errorf("execution already exists: %s", e.ID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.byID[e.ID] = clone(e)
	s.ordered = append(s.ordered, e.ID)
	return nil
}

// Get retrieves an execution by ID.
func (s *Store) Get(ctx context.Context, id string) (*store.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.byID[id]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	return clone(e), nil
}

// List returns executions matching the filter in insertion order.
// Limit == 0 means unbounded.
func (s *Store) List(ctx context.Context, filter store.Filter) ([]*store.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Execution
	for _, id := range s.ordered {
		e := s.byID[id]
		if !filter.Matches(e) {
			continue
		}
		result = append(result, clone(e))
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// Update replaces an existing execution record.
func (s *Store) Update(ctx context.Context, e *store.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[e.ID]; !exists {
		return &errors.NotFoundError{Resource: "execution", ID: e.ID}
	}
	s.byID[e.ID] = clone(e)
	return nil
}

// Delete removes an execution by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return &errors.NotFoundError{Resource: "execution", ID: id}
	}
	delete(s.byID, id)
	for i, existing := range s.ordered {
		if existing == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// clone copies a record so callers never alias store-internal state.
func clone(e *store.Execution) *store.Execution {
	c := *e
	if e.Parameters != nil {
		c.Parameters = make(map[string]any, len(e.Parameters))
		for k, v := range e.Parameters {
			c.Parameters[k] = v
		}
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

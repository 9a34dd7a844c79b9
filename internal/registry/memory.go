package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/actiond/actiond/pkg/errors"
)

// Compile-time interface assertions.
var (
	_ ActionStore     = (*MemoryActions)(nil)
	_ RunnerTypeStore = (*MemoryRunnerTypes)(nil)
)

// MemoryActions is an in-memory action registry. Registration order is
// preserved for List.
type MemoryActions struct {
	mu      sync.RWMutex
	byID    map[string]*Action
	byName  map[string]*Action
	ordered []*Action
}

// NewMemoryActions creates an empty in-memory action registry.
func NewMemoryActions() *MemoryActions {
	return &MemoryActions{
		byID:   make(map[string]*Action),
		byName: make(map[string]*Action),
	}
}

// Create registers a new action, assigning an ID when absent.
func (m *MemoryActions) Create(ctx context.Context, action *Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if action.Name == "" {
		return &errors.ValidationError{Field: "name", Message: "action name is required"}
	}
	if _, exists := m.byName[action.Name]; exists {
		return &errors.ValidationError{Field: "name", Message: fmt.Sprintf("action already registered: %s", action.Name)}
	}
	if err := action.Parameters.Validate(); err != nil {
		return &errors.ValidationError{Field: "parameters", Message: err.Error()}
	}

	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	stored := cloneAction(action)
	m.byID[stored.ID] = stored
	m.byName[stored.Name] = stored
	m.ordered = append(m.ordered, stored)
	return nil
}

// GetByID retrieves an action by ID.
func (m *MemoryActions) GetByID(ctx context.Context, id string) (*Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	action, exists := m.byID[id]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "action", ID: id}
	}
	return cloneAction(action), nil
}

// GetByName retrieves an action by name.
func (m *MemoryActions) GetByName(ctx context.Context, name string) (*Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	action, exists := m.byName[name]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "action", ID: name}
	}
	return cloneAction(action), nil
}

// List returns all actions in registration order.
func (m *MemoryActions) List(ctx context.Context) ([]*Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Action, len(m.ordered))
	for i, a := range m.ordered {
		result[i] = cloneAction(a)
	}
	return result, nil
}

// Delete removes an action by ID.
func (m *MemoryActions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, exists := m.byID[id]
	if !exists {
		return &errors.NotFoundError{Resource: "action", ID: id}
	}
	delete(m.byID, id)
	delete(m.byName, action.Name)
	for i, a := range m.ordered {
		if a.ID == id {
			m.ordered = append(m.ordered[:i], m.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryRunnerTypes is an in-memory runner type registry, seeded at
// construction and read-only afterwards.
type MemoryRunnerTypes struct {
	mu      sync.RWMutex
	byID    map[string]*RunnerType
	byName  map[string]*RunnerType
	ordered []*RunnerType
}

// NewMemoryRunnerTypes creates a registry seeded with the given types.
// Types without an ID get one assigned.
func NewMemoryRunnerTypes(types ...*RunnerType) *MemoryRunnerTypes {
	m := &MemoryRunnerTypes{
		byID:   make(map[string]*RunnerType),
		byName: make(map[string]*RunnerType),
	}
	for _, rt := range types {
		if rt.ID == "" {
			rt.ID = uuid.NewString()
		}
		m.byID[rt.ID] = rt
		m.byName[rt.Name] = rt
		m.ordered = append(m.ordered, rt)
	}
	return m
}

// GetByID retrieves a runner type by ID.
func (m *MemoryRunnerTypes) GetByID(ctx context.Context, id string) (*RunnerType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, exists := m.byID[id]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "runner type", ID: id}
	}
	return cloneRunnerType(rt), nil
}

// GetByName retrieves a runner type by name. Exact match only.
func (m *MemoryRunnerTypes) GetByName(ctx context.Context, name string) (*RunnerType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, exists := m.byName[name]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "runner type", ID: name}
	}
	return cloneRunnerType(rt), nil
}

// List returns all runner types in seed order.
func (m *MemoryRunnerTypes) List(ctx context.Context) ([]*RunnerType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*RunnerType, len(m.ordered))
	for i, rt := range m.ordered {
		result[i] = cloneRunnerType(rt)
	}
	return result, nil
}

// cloneAction copies an action so callers never alias registry-internal
// state (mutating a returned Parameters map must not change what the
// next lookup sees).
func cloneAction(a *Action) *Action {
	c := *a
	c.Parameters = a.Parameters.Clone()
	return &c
}

func cloneRunnerType(rt *RunnerType) *RunnerType {
	c := *rt
	c.Parameters = rt.Parameters.Clone()
	return &c
}

// BuiltinRunnerTypes returns the runner types seeded into a fresh
// deployment: a local shell runner and a remote HTTP runner.
func BuiltinRunnerTypes() []*RunnerType {
	return []*RunnerType{
		{
			Name:        "shell",
			Description: "Executes the entry point as a shell command.",
			Enabled:     true,
			Parameters:  schemaShell(),
		},
		{
			Name:        "http",
			Description: "Invokes the entry point as an HTTP request.",
			Enabled:     true,
			Parameters:  schemaHTTP(),
		},
	}
}

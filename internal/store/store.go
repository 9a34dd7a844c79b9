// Package store defines persistence for action execution records.
//
// The store is the system of record for execution lifecycle state but
// never initiates transitions on its own; the executions controller
// owns every status change. Implementations must guarantee that a
// single record's status transitions are observed consistently (a read
// returns the latest completed write).
package store

import (
	"context"
	"time"
)

// Status is the lifecycle state of an action execution.
type Status string

const (
	StatusRequested Status = "requested"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Execution is a single invocation record of an action with concrete,
// validated parameters.
type Execution struct {
	ID         string         `json:"id"`
	ActionID   string         `json:"action_id"`
	ActionName string         `json:"action_name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Status     Status         `json:"status"`

	// Error holds the dispatch failure detail for failed executions.
	Error string `json:"error,omitempty"`

	// DispatchRef is the backend's tracking reference for deferred runs,
	// targeted by cancellation.
	DispatchRef string `json:"dispatch_ref,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Filter selects execution records for List. Zero values mean "no
// constraint"; Limit == 0 means unbounded, by contract — callers wanting
// zero results should not call List.
type Filter struct {
	ActionName string
	ActionID   string
	Limit      int
}

// Matches reports whether the record passes the filter's name/id
// constraints. Limit is applied by the store after filtering.
func (f Filter) Matches(e *Execution) bool {
	if f.ActionName != "" && e.ActionName != f.ActionName {
		return false
	}
	if f.ActionID != "" && e.ActionID != f.ActionID {
		return false
	}
	return true
}

// ExecutionStore persists execution records.
type ExecutionStore interface {
	// Create persists a new execution record.
	Create(ctx context.Context, e *Execution) error

	// Get retrieves an execution by ID.
	Get(ctx context.Context, id string) (*Execution, error)

	// List returns executions matching the filter, in insertion order,
	// truncated to filter.Limit when it is positive.
	List(ctx context.Context, filter Filter) ([]*Execution, error)

	// Update replaces an existing execution record.
	Update(ctx context.Context, e *Execution) error

	// Delete removes an execution by ID.
	Delete(ctx context.Context, id string) error
}

// Package registry holds the definitions of runner types and the actions
// bound to them. The dispatch core treats both as read-mostly metadata:
// actions are registered out-of-band (YAML packs or the actions endpoint)
// and runner types are seeded at startup.
package registry

import (
	"context"

	"github.com/actiond/actiond/internal/schema"
)

// RunnerType is the category of executor an action is bound to. Its
// parameter schema fragment is merged under every bound action's own
// declarations.
type RunnerType struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	Parameters  schema.Schema `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Action is a named, registered executable unit with a declared
// parameter schema. Immutable once registered from the dispatch core's
// point of view.
type Action struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	EntryPoint  string        `yaml:"entry_point" json:"entry_point"`
	RunnerType  string        `yaml:"runner_type" json:"runner_type"`
	Parameters  schema.Schema `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// ActionStore is the read/registration surface for actions.
type ActionStore interface {
	// GetByID retrieves an action by ID.
	GetByID(ctx context.Context, id string) (*Action, error)

	// GetByName retrieves an action by its unique name.
	GetByName(ctx context.Context, name string) (*Action, error)

	// List returns all actions in registration order.
	List(ctx context.Context) ([]*Action, error)

	// Create registers a new action and assigns its ID.
	Create(ctx context.Context, action *Action) error

	// Delete removes an action by ID.
	Delete(ctx context.Context, id string) error
}

// RunnerTypeStore is the read-only lookup surface for runner types.
// Create, update and delete are intentionally unsupported operations;
// the API layer rejects them without touching any store.
type RunnerTypeStore interface {
	// GetByID retrieves a runner type by ID.
	GetByID(ctx context.Context, id string) (*RunnerType, error)

	// GetByName retrieves a runner type by its unique name.
	GetByName(ctx context.Context, name string) (*RunnerType, error)

	// List returns all runner types in registration order.
	List(ctx context.Context) ([]*RunnerType, error)
}

// MergedSchema resolves the effective parameter schema for an action:
// the runner type's fragment overlaid with the action's own declarations
// (action wins per key).
func MergedSchema(rt *RunnerType, action *Action) schema.Schema {
	return rt.Parameters.Merge(action.Parameters)
}

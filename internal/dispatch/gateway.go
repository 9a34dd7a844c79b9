// Package dispatch issues live action runs and cancellations against the
// execution backend.
package dispatch

import (
	"context"

	"github.com/actiond/actiond/internal/registry"
)

// Outcome is the result of a gateway call: either the backend completed
// the call synchronously (Completed) or accepted it for asynchronous
// execution (Deferred). Modeling this as a closed union keeps the
// controller's post-dispatch update a total switch instead of an
// inferred boolean branch.
type Outcome interface {
	isOutcome()
}

// Completed is a synchronous outcome carrying the backend's response.
type Completed struct {
	StatusCode int
	Reason     string
	Body       []byte
}

func (Completed) isOutcome() {}

// Success reports whether the backend signaled a 2xx terminal status.
func (c Completed) Success() bool {
	return c.StatusCode >= 200 && c.StatusCode < 300
}

// Deferred is an asynchronous outcome: the run was accepted and will
// complete out-of-band. Ref is the backend's tracking reference,
// targeted by cancellation.
type Deferred struct {
	Ref string
}

func (Deferred) isOutcome() {}

// Gateway issues the actual run or cancellation of a live action.
type Gateway interface {
	// Issue starts a run of the action with validated parameters. A
	// returned error means the call itself failed (transport failure or
	// timeout); backend-reported failures arrive as a non-2xx Completed.
	Issue(ctx context.Context, action *registry.Action, params map[string]any) (Outcome, error)

	// Cancel stops a live action by its tracking reference. Best-effort:
	// a backend that reports the run already finished yields a non-2xx
	// Completed, not an error.
	Cancel(ctx context.Context, ref string) (Outcome, error)
}

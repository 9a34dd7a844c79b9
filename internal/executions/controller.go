// Package executions orchestrates the lifecycle of action executions:
// validation, record creation, dispatch, reconciliation and queries.
package executions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/actiond/actiond/internal/dispatch"
	"github.com/actiond/actiond/internal/metrics"
	"github.com/actiond/actiond/internal/registry"
	"github.com/actiond/actiond/internal/schema"
	"github.com/actiond/actiond/internal/store"
	"github.com/actiond/actiond/pkg/errors"
)

// ActionRef names an action by ID or by embedded name; ID wins when both
// are set.
type ActionRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Controller owns the execution record lifecycle. All collaborators are
// injected interfaces so tests substitute fakes.
type Controller struct {
	actions     registry.ActionStore
	runnerTypes registry.RunnerTypeStore
	store       store.ExecutionStore
	gateway     dispatch.Gateway
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New creates a controller.
func New(actions registry.ActionStore, runnerTypes registry.RunnerTypeStore,
	st store.ExecutionStore, gw dispatch.Gateway, logger *slog.Logger) *Controller {
	return &Controller{
		actions:     actions,
		runnerTypes: runnerTypes,
		store:       st,
		gateway:     gw,
		logger:      logger,
		tracer:      otel.Tracer("actiond/executions"),
	}
}

// Create validates the request, persists a requested record, dispatches
// the run and reconciles the record with the outcome.
//
// Validation and lookup failures happen before any mutation. A dispatch
// failure happens after the record exists, so it is compensated by a
// status update instead of a rollback: the failed record is historical
// evidence and both the record and the error reach the caller.
func (c *Controller) Create(ctx context.Context, ref ActionRef, params map[string]any) (*store.Execution, error) {
	ctx, span := c.tracer.Start(ctx, "executions.Create")
	defer span.End()

	action, err := c.resolveAction(ctx, ref)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("action.name", action.Name))

	if !action.Enabled {
		return nil, &errors.ValidationError{Field: "action", Message: fmt.Sprintf("action is disabled: %s", action.Name)}
	}

	runnerType, err := c.runnerTypes.GetByName(ctx, action.RunnerType)
	if err != nil {
		return nil, err
	}

	merged := registry.MergedSchema(runnerType, action)
	validated, err := schema.Validate(merged, params)
	if err != nil {
		var fe *schema.FieldError
		if errors.As(err, &fe) {
			metrics.RecordValidationFailure(string(fe.Reason))
			return nil, &errors.ValidationError{Field: fe.Key, Message: fe.Detail}
		}
		return nil, &errors.ValidationError{Message: err.Error()}
	}

	execution := &store.Execution{
		ID:         uuid.NewString(),
		ActionID:   action.ID,
		ActionName: action.Name,
		Parameters: validated,
		Status:     store.StatusRequested,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.store.Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to persist execution: %w", err)
	}
	c.logger.Info("execution requested", "execution_id", execution.ID, "action", action.Name)

	start := time.Now()
	outcome, err := c.gateway.Issue(ctx, action, validated)
	metrics.ObserveDispatch(time.Since(start))
	if err != nil {
		metrics.RecordDispatchError(dispatchErrorKind(err))
		return c.markFailed(ctx, execution, err)
	}

	switch o := outcome.(type) {
	case dispatch.Deferred:
		execution.Status = store.StatusRunning
		execution.DispatchRef = o.Ref
		if err := c.store.Update(ctx, execution); err != nil {
			return nil, fmt.Errorf("failed to update execution: %w", err)
		}
		metrics.RecordExecution(action.Name, string(store.StatusRunning))
		c.logger.Info("execution deferred", "execution_id", execution.ID, "ref", o.Ref)
		return execution, nil

	case dispatch.Completed:
		if !o.Success() {
			metrics.RecordDispatchError("backend")
			return c.markFailed(ctx, execution, &errors.DispatchError{
				StatusCode: o.StatusCode,
				Reason:     o.Reason,
			})
		}
		now := time.Now().UTC()
		execution.Status = store.StatusSucceeded
		execution.CompletedAt = &now
		if err := c.store.Update(ctx, execution); err != nil {
			return nil, fmt.Errorf("failed to update execution: %w", err)
		}
		metrics.RecordExecution(action.Name, string(store.StatusSucceeded))
		c.logger.Info("execution succeeded", "execution_id", execution.ID)
		return execution, nil

	default:
		return nil, fmt.Errorf("unknown dispatch outcome %T", outcome)
	}
}

// dispatchErrorKind classifies a gateway error for metrics: a context
// deadline is a timeout, everything else a transport failure.
func dispatchErrorKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "transport"
}

// markFailed writes the failure onto the record and surfaces the error
// alongside it. The record is kept for later inspection.
func (c *Controller) markFailed(ctx context.Context, execution *store.Execution, cause error) (*store.Execution, error) {
	now := time.Now().UTC()
	execution.Status = store.StatusFailed
	execution.Error = cause.Error()
	execution.CompletedAt = &now
	if err := c.store.Update(ctx, execution); err != nil {
		c.logger.Error("failed to record dispatch failure", "execution_id", execution.ID, "error", err)
	}
	metrics.RecordExecution(execution.ActionName, string(store.StatusFailed))
	c.logger.Warn("execution failed", "execution_id", execution.ID, "error", cause)
	return execution, cause
}

// Get returns a single execution by ID.
func (c *Controller) Get(ctx context.Context, id string) (*store.Execution, error) {
	return c.store.Get(ctx, id)
}

// List returns executions matching the filter, in insertion order.
// Filter applies before limit; a zero limit is unbounded.
func (c *Controller) List(ctx context.Context, filter store.Filter) ([]*store.Execution, error) {
	return c.store.List(ctx, filter)
}

// Delete removes an execution. A non-terminal execution gets a
// best-effort cancellation first; cancellation failures are logged and
// swallowed so a race with natural completion never blocks the delete.
func (c *Controller) Delete(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "executions.Delete")
	defer span.End()

	execution, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if !execution.Status.Terminal() {
		c.cancelLive(ctx, execution)
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.logger.Info("execution deleted", "execution_id", id)
	return nil
}

// cancelLive issues the gateway cancel and records the canceled status.
// Every failure path is tolerated: the user's intent is removal, and the
// run may simply have finished already.
func (c *Controller) cancelLive(ctx context.Context, execution *store.Execution) {
	if execution.DispatchRef == "" {
		return
	}

	outcome, err := c.gateway.Cancel(ctx, execution.DispatchRef)
	if err != nil {
		c.logger.Warn("live action cancel failed", "execution_id", execution.ID, "error", err)
		return
	}
	if completed, ok := outcome.(dispatch.Completed); ok && !completed.Success() {
		c.logger.Debug("live action already finished", "execution_id", execution.ID, "status", completed.StatusCode)
	}

	now := time.Now().UTC()
	execution.Status = store.StatusCanceled
	execution.CompletedAt = &now
	if err := c.store.Update(ctx, execution); err != nil {
		c.logger.Warn("failed to mark execution canceled", "execution_id", execution.ID, "error", err)
	}
	metrics.RecordExecution(execution.ActionName, string(store.StatusCanceled))
}

// resolveAction resolves an action reference by ID or name.
func (c *Controller) resolveAction(ctx context.Context, ref ActionRef) (*registry.Action, error) {
	if ref.ID != "" {
		return c.actions.GetByID(ctx, ref.ID)
	}
	if ref.Name != "" {
		return c.actions.GetByName(ctx, ref.Name)
	}
	return nil, &errors.ValidationError{Field: "action", Message: "an action id or name is required"}
}

// Package daemon assembles the configured components into a running
// service: store, registries, pack loader, dispatch gateway, controller
// and the HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/actiond/actiond/internal/api"
	"github.com/actiond/actiond/internal/config"
	"github.com/actiond/actiond/internal/dispatch"
	"github.com/actiond/actiond/internal/executions"
	"github.com/actiond/actiond/internal/registry"
	"github.com/actiond/actiond/internal/store"
	"github.com/actiond/actiond/internal/store/memory"
	"github.com/actiond/actiond/internal/store/sqlite"
	"github.com/actiond/actiond/internal/tracing"
)

// Options carries build-time identity injected from main.
type Options struct {
	Version string
	Commit  string
}

// Daemon is the assembled service.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	server    *http.Server
	tracing   *tracing.Provider
	stopWatch func()
	closeFn   func() error
}

// New wires the daemon from configuration. Nothing is listening until
// Start is called.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	d := &Daemon{cfg: cfg, logger: logger}

	provider, err := tracing.Setup(ctx, cfg.Tracing, "actiond", opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	d.tracing = provider

	executionStore, closeFn, err := newExecutionStore(cfg.Backend)
	if err != nil {
		return nil, err
	}
	d.closeFn = closeFn

	actions := registry.NewMemoryActions()
	runnerTypes := registry.NewMemoryRunnerTypes(registry.BuiltinRunnerTypes()...)

	if cfg.Packs.Dir != "" {
		loader := registry.NewPackLoader(cfg.Packs.Dir, actions, logger)
		if err := loader.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load action packs: %w", err)
		}
		if cfg.Packs.Watch {
			stop, err := loader.Watch(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to watch action packs: %w", err)
			}
			d.stopWatch = stop
		}
	}

	gateway := dispatch.NewHTTPGateway(dispatch.Config{
		BaseURL: cfg.Dispatch.BaseURL,
		Timeout: cfg.Dispatch.Timeout,
	}, logger)

	controller := executions.New(actions, runnerTypes, executionStore, gateway, logger)

	handler := api.NewRouter(api.RouterConfig{
		Controller:  controller,
		Actions:     actions,
		RunnerTypes: runnerTypes,
		Logger:      logger,
		AuthToken:   cfg.Auth.Token,
		RateLimit:   cfg.Auth.RateLimit,
	})

	d.server = &http.Server{
		Addr:              cfg.Listen.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// newExecutionStore builds the configured backend.
func newExecutionStore(cfg config.BackendConfig) (store.ExecutionStore, func() error, error) {
	switch cfg.Type {
	case "sqlite":
		s, err := sqlite.New(sqlite.Config{Path: cfg.Path, WAL: cfg.WALMode})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite backend: %w", err)
		}
		return s, s.Close, nil
	default:
		return memory.New(), nil, nil
	}
}

// Start runs the HTTP server until the context is canceled or the
// listener fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info("daemon listening",
		"addr", d.cfg.Listen.Addr,
		"backend", d.cfg.Backend.Type,
		"auth", d.cfg.Auth.Token != "",
	)

	errCh := make(chan error, 1)
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server gracefully, then releases backend and
// tracing resources.
func (d *Daemon) Shutdown(ctx context.Context) error {
	if d.stopWatch != nil {
		d.stopWatch()
	}

	timeout := d.cfg.Listen.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if d.closeFn != nil {
		if err := d.closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("backend close: %w", err))
		}
	}
	if err := d.tracing.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	return errors.Join(errs...)
}

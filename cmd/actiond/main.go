// Command actiond runs the action execution dispatch daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/actiond/actiond/internal/config"
	"github.com/actiond/actiond/internal/daemon"
	"github.com/actiond/actiond/internal/log"
)

// Version information (injected via ldflags at build time)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actiond",
		Short: "actiond - action execution dispatch daemon",
		Long: `actiond validates action execution requests against registered
parameter schemas, dispatches them to an execution backend and tracks
their lifecycle as queryable records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var (
		configPath  string
		listenAddr  string
		backendType string
		dbPath      string
		packsDir    string
		dispatchURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// CLI flags win over file and environment.
			if listenAddr != "" {
				cfg.Listen.Addr = listenAddr
			}
			if backendType != "" {
				cfg.Backend.Type = backendType
			}
			if dbPath != "" {
				cfg.Backend.Type = "sqlite"
				cfg.Backend.Path = dbPath
			}
			if packsDir != "" {
				cfg.Packs.Dir = packsDir
			}
			if dispatchURL != "" {
				cfg.Dispatch.BaseURL = dispatchURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.New(log.FromConfig(cfg.Log.Level, cfg.Log.Format))
			slog.SetDefault(logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d, err := daemon.New(ctx, cfg, logger, daemon.Options{
				Version: version,
				Commit:  commit,
			})
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() { errCh <- d.Start(ctx) }()

			select {
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
				cancel()
			case err := <-errCh:
				if err != nil {
					return err
				}
			}
			return d.Shutdown(context.Background())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "TCP address to listen on")
	cmd.Flags().StringVar(&backendType, "backend", "", "Storage backend (memory, sqlite)")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "SQLite database path (implies --backend sqlite)")
	cmd.Flags().StringVar(&packsDir, "packs-dir", "", "Directory of YAML action packs")
	cmd.Flags().StringVar(&dispatchURL, "dispatch-url", "", "Execution backend base URL")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("actiond %s (commit: %s)\n", version, commit)
		},
	}
}

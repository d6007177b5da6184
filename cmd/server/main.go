// Package main is the TaskMaster backend entry point. It serves the HTTP and
// live-update API and manages schema migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "taskmaster",
		Short:        "TaskMaster backend: per-user task lists with live change notifications",
		Version:      Version,
		SilenceUsage: true,
		// Running the bare binary serves, matching how deployments start it
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a config file (default: ./config.yaml when present)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))

	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

The storage backend is chosen by the database URL scheme:
  postgres:// or postgresql://   PostgreSQL (migrations run on start unless disabled)
  mongodb:// or mongodb+srv://   MongoDB
  memory://                      in-process, for development only

Examples:
  taskmaster serve
  TASKMASTER_DATABASE_URL=memory:// taskmaster serve
  taskmaster serve --config /etc/taskmaster/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfigAndLogger(configPath)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

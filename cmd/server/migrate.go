package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/mongodb"
	"github.com/phrazzld/taskmaster-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [command] [args...]",
		Short: "Manage the database schema",
		Long: `Run a schema migration command against the configured database.

For PostgreSQL any goose command is accepted (up, down, status, version,
redo, reset, up-to VERSION, down-to VERSION). MongoDB only supports "up",
which creates the unique indexes the stores rely on.

Examples:
  taskmaster migrate up
  taskmaster migrate status
  taskmaster migrate down-to 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(*configPath)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg.Database, log, args[0], args[1:]...)
		},
	}
}

func runMigrate(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
	command string,
	args ...string,
) error {
	switch cfg.Driver() {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := postgres.Migrate(ctx, db, command, logger, args...); err != nil {
			return err
		}

	case config.DriverMongo:
		if command != "up" {
			return fmt.Errorf("mongo supports only the \"up\" migration command, got %q", command)
		}
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongodb.Connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		if err := mongodb.EnsureIndexes(ctx, client.Database(cfg.Name)); err != nil {
			return err
		}

	default:
		return fmt.Errorf("the %s backend has no schema to migrate", cfg.Driver())
	}

	logger.Info("migration command finished", "command", command)
	return nil
}

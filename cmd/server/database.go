package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/memory"
	"github.com/phrazzld/taskmaster-api/internal/platform/mongodb"
	"github.com/phrazzld/taskmaster-api/internal/platform/postgres"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

const connectTimeout = 10 * time.Second

// storage bundles the stores of one backend with the function that
// releases its connections.
type storage struct {
	driver string
	users  store.UserStore
	tasks  store.TaskListStore
	close  func(ctx context.Context) error
}

// openStorage connects to the backend selected by cfg.URL.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	switch driver := cfg.Driver(); driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &storage{
			driver: driver,
			users:  postgres.NewPostgresUserStore(db, logger),
			tasks:  postgres.NewPostgresTaskListStore(db, logger),
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongodb.Connect(connectCtx, cfg, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Name)
		if err := mongodb.EnsureIndexes(connectCtx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &storage{
			driver: driver,
			users:  mongodb.NewUserStore(db, logger),
			tasks:  mongodb.NewTaskListStore(db, logger),
			close:  client.Disconnect,
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return &storage{
			driver: driver,
			users:  memory.NewUserStore(),
			tasks:  memory.NewTaskListStore(),
			close:  func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database url scheme")
	}
}

// openPostgres opens a pgx-backed *sql.DB and verifies the connection.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(max(cfg.MaxOpenConns/2, 1))
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", "max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

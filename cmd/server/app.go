package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/redis"
	"github.com/phrazzld/taskmaster-api/internal/service"
	goredis "github.com/redis/go-redis/v9"
)

// application holds the shared dependencies of a running server so they
// can be wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	storage *storage

	// Change notification
	eventEmitter *events.InMemoryEventEmitter
	hub          *events.Hub
	redisClient  *goredis.Client
	bridge       *redis.Bridge

	userService service.UserService
	taskService service.TaskService
}

// newApplication connects the configured storage backend and wires the
// services, the change hub and, when configured, the Redis bridge.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.storage, err = openStorage(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Database.Driver(), err)
	}

	app.hub = events.NewHub(cfg.Notifier.QueueSize, logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(app.hub)

	if cfg.Notifier.RedisEnabled() {
		if err := app.startBridge(ctx); err != nil {
			app.cleanup(ctx)
			return nil, err
		}
	}

	app.taskService, err = service.NewTaskService(app.storage.tasks, app.eventEmitter, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.userService = service.NewUserService(app.storage.users, logger)

	logger.Info("application initialized", "database_driver", app.storage.driver)
	return app, nil
}

// startBridge connects to Redis and relays change events between this
// instance's hub and its peers.
func (app *application) startBridge(ctx context.Context) error {
	client, err := redis.New(ctx, app.config.Notifier.RedisAddr, app.config.Notifier.RedisPassword)
	if err != nil {
		return err
	}

	bridge := redis.NewBridge(client, app.config.Notifier.RedisChannel, app.hub, app.logger)
	if err := bridge.Start(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to start redis bridge: %w", err)
	}

	app.redisClient = client
	app.bridge = bridge
	app.eventEmitter.RegisterHandler(bridge)
	return nil
}

// Run serves HTTP until ctx is cancelled or the process is signalled, then
// releases every resource.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) shutdownTimeout() time.Duration {
	return time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
}

// cleanup releases resources in dependency order: the bridge is flushed
// before live streams close, and storage closes last.
func (app *application) cleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.shutdownTimeout())
	defer cancel()

	var errs []error

	if app.bridge != nil {
		if err := app.bridge.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop redis bridge: %w", err))
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}
	if app.hub != nil {
		app.hub.Close()
	}
	if app.storage != nil {
		if err := app.storage.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s storage: %w", app.storage.driver, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("error during shutdown", "error", err)
	}
	app.logger.Info("application shutdown completed")
}

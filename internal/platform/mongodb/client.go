package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names inside the configured database. TasksCollection holds one
// document per user. Older deployments keep one document per task in a
// collection named "Tasks"; that collection is never read or indexed here so
// the unique userEmail index cannot collide with it.
const (
	UsersCollection       = "Users"
	TasksCollection       = "TaskLists"
	LegacyTasksCollection = "Tasks"
)

// Connect opens a client for cfg.URL and verifies the primary is reachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if logger != nil {
		logger.Info("connected to mongo", "database", cfg.Name, "max_pool_size", cfg.MaxOpenConns)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the stores rely on. It is safe
// to run on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	if _, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	if _, err := db.Collection(TasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userEmail", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create tasks index: %w", err)
	}

	return nil
}

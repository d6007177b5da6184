package mongodb

import (
	"errors"

	"github.com/phrazzld/taskmaster-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// MapError converts MongoDB driver errors to the store error taxonomy.
func MapError(err error, entity, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.NewStoreError(entity, operation, "duplicate key", errors.Join(store.ErrDuplicate, err))
	case mongo.IsTimeout(err):
		return store.NewStoreError(entity, operation, "operation timed out", err)
	case mongo.IsNetworkError(err):
		return store.NewStoreError(entity, operation, "database unavailable", err)
	default:
		return store.NewStoreError(entity, operation, "database error", err)
	}
}

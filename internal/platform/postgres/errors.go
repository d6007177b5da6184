package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode   = "23505"
	checkViolationCode    = "23514"
	notNullViolationCode  = "23502"
	invalidTextRepCode    = "22P02"
	undefinedTableCode    = "42P01"
	serializationFailCode = "40001"
)

// MapError maps a database error to a store error for the given entity and
// operation. sql.ErrNoRows becomes store.ErrNotFound; constraint failures
// become store.ErrDuplicate or store.ErrInvalidEntity. Everything else is
// wrapped in a *store.StoreError so callers can tell store failures apart
// from validation and not-found results.
func MapError(err error, entity, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return store.NewStoreError(entity, operation, "duplicate value",
				fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName))
		case checkViolationCode, invalidTextRepCode:
			return store.NewStoreError(entity, operation, "constraint violation",
				fmt.Errorf("%w: %s", store.ErrInvalidEntity, pgErr.ConstraintName))
		case notNullViolationCode:
			return store.NewStoreError(entity, operation, "not null violation",
				fmt.Errorf("%w: %s", store.ErrInvalidEntity, pgErr.ColumnName))
		case undefinedTableCode:
			return store.NewStoreError(entity, operation, "schema missing, run migrations", err)
		case serializationFailCode:
			return store.NewStoreError(entity, operation, "concurrent update conflict", err)
		}
	}

	return store.NewStoreError(entity, operation, "database error", err)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsNotFoundError checks if the given error represents a "not found" scenario.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}

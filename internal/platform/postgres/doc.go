// Package postgres provides PostgreSQL implementations of the store
// interfaces. Task lists are stored as one JSONB array per user so that
// every list mutation is a single atomic statement on one row; the schema
// ships as embedded goose migrations.
package postgres

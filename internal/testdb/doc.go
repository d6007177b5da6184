// Package testdb provides helpers for integration tests that need a live
// PostgreSQL, MongoDB or Redis.
//
// Each helper reads its endpoint from the environment and skips the test
// when it is unset, so integration-tagged tests are safe to run anywhere:
//
//	TASKMASTER_TEST_DATABASE_URL   postgres://... (falls back to DATABASE_URL)
//	TASKMASTER_TEST_MONGO_URL      mongodb://...
//	TASKMASTER_TEST_REDIS_ADDR     host:port
//	TASKMASTER_TEST_REDIS_PASSWORD optional
//
// Postgres databases are migrated with the embedded schema before use.
package testdb

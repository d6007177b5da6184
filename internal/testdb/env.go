package testdb

import (
	"os"
	"testing"
)

// Environment variables naming the integration test endpoints.
const (
	DatabaseURLEnv   = "TASKMASTER_TEST_DATABASE_URL"
	MongoURLEnv      = "TASKMASTER_TEST_MONGO_URL"
	RedisAddrEnv     = "TASKMASTER_TEST_REDIS_ADDR"
	RedisPasswordEnv = "TASKMASTER_TEST_REDIS_PASSWORD"
)

// GetTestDatabaseURL returns the Postgres URL for tests, preferring
// TASKMASTER_TEST_DATABASE_URL over DATABASE_URL.
func GetTestDatabaseURL() string {
	if url := os.Getenv(DatabaseURLEnv); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}

// MongoURL returns the MongoDB URL for tests or skips t.
func MongoURL(t *testing.T) string {
	t.Helper()
	return requireEnv(t, MongoURLEnv)
}

// RedisAddr returns the Redis address and password for tests or skips t.
func RedisAddr(t *testing.T) (addr, password string) {
	t.Helper()
	return requireEnv(t, RedisAddrEnv), os.Getenv(RedisPasswordEnv)
}

func requireEnv(t *testing.T, name string) string {
	t.Helper()
	value := os.Getenv(name)
	if value == "" {
		t.Skipf("%s not set, skipping integration test", name)
	}
	return value
}

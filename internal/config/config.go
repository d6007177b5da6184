package config

import (
	"net/url"
	"strings"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Notifier NotifierConfig `mapstructure:"notifier" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"    validate:"gte=1"`
}

// DatabaseConfig contains all persistence-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required"`
	Name         string `mapstructure:"name"           validate:"required"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// NotifierConfig configures change-event fan-out. An empty RedisAddr keeps
// notifications local to the process.
type NotifierConfig struct {
	QueueSize     int    `mapstructure:"queue_size"     validate:"gte=1"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisChannel  string `mapstructure:"redis_channel"  validate:"required"`
}

// Supported database drivers, derived from the URL scheme.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Driver returns the storage backend selected by the database URL scheme,
// or an empty string when the scheme is not recognized.
func (d DatabaseConfig) Driver() string {
	u, err := url.Parse(d.URL)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DriverPostgres
	case "mongodb", "mongodb+srv":
		return DriverMongo
	case "memory":
		return DriverMemory
	default:
		return ""
	}
}

// RedisEnabled reports whether the cross-instance change bridge is configured.
func (n NotifierConfig) RedisEnabled() bool {
	return n.RedisAddr != ""
}

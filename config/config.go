package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBaseAddress is the remote endpoint users are loaded from when none is configured
const DefaultBaseAddress = "https://api.example.com"

// Source kinds for bulk loading
const (
	SourceHTTP = "http"
	SourceSQL  = "sql"
)

// ShardConfig represents configuration for a single shard of the SQL user source
type ShardConfig struct {
	ShardID  int
	Primary  DatabaseConfig
	Replicas []DatabaseConfig
}

// DatabaseConfig represents a single database connection configuration
type DatabaseConfig struct {
	Driver   string // pgx, postgres or sqlite; empty means pgx
	DSN      string // used verbatim when set
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Config holds the complete application configuration
type Config struct {
	BaseAddress    string
	StrictDecoding bool
	Source         string
	LogLevel       string
	LogFormat      string
	Shards         []ShardConfig
}

// DriverName returns the database/sql driver to open this connection with
func (dc *DatabaseConfig) DriverName() string {
	if dc.Driver == "" {
		return "pgx"
	}
	return dc.Driver
}

// ConnectionString returns the DSN if one was given, otherwise a PostgreSQL connection string
func (dc *DatabaseConfig) ConnectionString() string {
	if dc.DSN != "" {
		return dc.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dc.Host, dc.Port, dc.User, dc.Password, dc.DBName,
	)
}

// DefaultConfig returns the default configuration: HTTP loading from
// DefaultBaseAddress with strict record validation
func DefaultConfig() *Config {
	return &Config{
		BaseAddress:    DefaultBaseAddress,
		StrictDecoding: true,
		Source:         SourceHTTP,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LocalShards returns a local PostgreSQL topology with n shards, each with one
// replica on the next port, starting at port 5440
func LocalShards(n int) []ShardConfig {
	shards := make([]ShardConfig, 0, n)
	for i := 0; i < n; i++ {
		db := fmt.Sprintf("shard%d", i)
		shards = append(shards, ShardConfig{
			ShardID: i,
			Primary: DatabaseConfig{
				Host:     "localhost",
				Port:     5440 + 2*i,
				User:     "postgres",
				Password: "postgres",
				DBName:   db,
			},
			Replicas: []DatabaseConfig{
				{
					Host:     "localhost",
					Port:     5441 + 2*i,
					User:     "postgres",
					Password: "postgres",
					DBName:   db,
				},
			},
		})
	}
	return shards
}

// FromEnv overlays USER_REGISTRY_* environment variables onto cfg.
//
//	USER_REGISTRY_BASE_ADDRESS  remote endpoint
//	USER_REGISTRY_STRICT        true/false
//	USER_REGISTRY_SOURCE        http or sql
//	USER_REGISTRY_LOG_LEVEL     debug, info, warn, error
//	USER_REGISTRY_LOG_FORMAT    text or json
//	USER_REGISTRY_DB_DRIVER     driver for USER_REGISTRY_DATABASE_URLS
//	USER_REGISTRY_DATABASE_URLS comma separated DSNs, one shard each
func FromEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("USER_REGISTRY_BASE_ADDRESS"); v != "" {
		cfg.BaseAddress = v
	}
	if v := getenv("USER_REGISTRY_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid USER_REGISTRY_STRICT %q: %w", v, err)
		}
		cfg.StrictDecoding = strict
	}
	if v := getenv("USER_REGISTRY_SOURCE"); v != "" {
		cfg.Source = strings.ToLower(v)
	}
	if v := getenv("USER_REGISTRY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("USER_REGISTRY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := getenv("USER_REGISTRY_DATABASE_URLS"); v != "" {
		cfg.Shards = ShardsFromDSNs(getenv("USER_REGISTRY_DB_DRIVER"), strings.Split(v, ","))
	}
	return nil
}

// ShardsFromDSNs builds one shard per DSN. The primary doubles as the
// replica since a bare DSN list carries no replica topology.
func ShardsFromDSNs(driver string, dsns []string) []ShardConfig {
	var shards []ShardConfig
	for _, dsn := range dsns {
		dsn = strings.TrimSpace(dsn)
		if dsn == "" {
			continue
		}
		db := DatabaseConfig{Driver: driver, DSN: dsn}
		shards = append(shards, ShardConfig{
			ShardID:  len(shards),
			Primary:  db,
			Replicas: []DatabaseConfig{db},
		})
	}
	return shards
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if c.BaseAddress == "" {
			return fmt.Errorf("base address is required for the %s source", SourceHTTP)
		}
	case SourceSQL:
		if len(c.Shards) == 0 {
			return fmt.Errorf("at least one shard is required for the %s source", SourceSQL)
		}
		for i, shard := range c.Shards {
			if shard.ShardID != i {
				return fmt.Errorf("shard at position %d has id %d, shard ids must be 0..n-1 in order", i, shard.ShardID)
			}
		}
	default:
		return fmt.Errorf("unknown source: %q", c.Source)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.LogFormat)
	}

	return nil
}

// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/samandartukhtayev/user-registry/config"
)

// SQLiteConfig returns a SQL-source config with n file-backed SQLite shards in
// a per-test temp dir. Each shard's replica opens the primary's file, so
// reads observe writes without replication lag.
func SQLiteConfig(t testing.TB, n int) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Source = config.SourceSQL
	for i := 0; i < n; i++ {
		db := config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(dir, fmt.Sprintf("shard%d.db", i)),
		}
		cfg.Shards = append(cfg.Shards, config.ShardConfig{
			ShardID:  i,
			Primary:  db,
			Replicas: []config.DatabaseConfig{db},
		})
	}
	return cfg
}

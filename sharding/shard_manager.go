package sharding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/samandartukhtayev/user-registry/config"
)

// ShardManager manages the database shards of the SQL user source and their replicas
type ShardManager struct {
	shards    []*Shard
	numShards int
	mu        sync.RWMutex
}

// Shard represents a single database shard with primary and replica connections
type Shard struct {
	ShardID  int
	Primary  *sql.DB
	Replicas []*sql.DB
}

// NewShardManager opens and pings every primary and replica in cfg.Shards.
// On failure, connections opened so far are closed.
func NewShardManager(ctx context.Context, cfg *config.Config) (*ShardManager, error) {
	if len(cfg.Shards) == 0 {
		return nil, errors.New("no shards configured")
	}

	sm := &ShardManager{
		shards:    make([]*Shard, 0, len(cfg.Shards)),
		numShards: len(cfg.Shards),
	}

	for _, shardCfg := range cfg.Shards {
		shard, err := openShard(ctx, shardCfg)
		if err != nil {
			_ = sm.Close()
			return nil, err
		}
		sm.shards = append(sm.shards, shard)
	}

	return sm, nil
}

func openShard(ctx context.Context, shardCfg config.ShardConfig) (*Shard, error) {
	shard := &Shard{
		ShardID:  shardCfg.ShardID,
		Replicas: make([]*sql.DB, 0, len(shardCfg.Replicas)),
	}

	primaryDB, err := openDB(ctx, shardCfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary for shard %d: %w", shardCfg.ShardID, err)
	}
	shard.Primary = primaryDB

	for j, replicaCfg := range shardCfg.Replicas {
		replicaDB, err := openDB(ctx, replicaCfg)
		if err != nil {
			shard.close()
			return nil, fmt.Errorf("failed to connect to replica %d for shard %d: %w", j, shardCfg.ShardID, err)
		}
		shard.Replicas = append(shard.Replicas, replicaDB)
	}

	return shard, nil
}

func openDB(ctx context.Context, dc config.DatabaseConfig) (*sql.DB, error) {
	driver := dc.DriverName()
	if driver == "sqlite" || driver == "sqlite3" {
		driver = SQLiteDriverName
	}

	db, err := sql.Open(driver, dc.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}

// ShardKey is the shard key for a user id
func ShardKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetShardID maps a key to a shard with FNV-1a, so the same key always lands on the same shard
func (sm *ShardManager) GetShardID(shardKey string) int {
	h := fnv.New32a()
	h.Write([]byte(shardKey))

	return int(h.Sum32() % uint32(sm.numShards))
}

// GetPrimaryDB returns the primary database for a given shard key
// All write operations should use this
func (sm *ShardManager) GetPrimaryDB(shardKey string) *sql.DB {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	shardID := sm.GetShardID(shardKey)
	return sm.shards[shardID].Primary
}

// GetReplicaDB returns a replica database for a given shard key
// If no replicas are available, it returns the primary
func (sm *ShardManager) GetReplicaDB(shardKey string) *sql.DB {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.shards[sm.GetShardID(shardKey)].Reader()
}

// Reader returns a random replica, or the primary when the shard has none
func (s *Shard) Reader() *sql.DB {
	if len(s.Replicas) == 0 {
		return s.Primary
	}
	return s.Replicas[rand.Intn(len(s.Replicas))]
}

// GetShardByID returns a specific shard by its ID
func (sm *ShardManager) GetShardByID(shardID int) (*Shard, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if shardID < 0 || shardID >= sm.numShards {
		return nil, fmt.Errorf("invalid shard ID: %d", shardID)
	}

	return sm.shards[shardID], nil
}

// GetAllShards returns all shards
func (sm *ShardManager) GetAllShards() []*Shard {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	// Return a copy to prevent external modifications
	shardsCopy := make([]*Shard, len(sm.shards))
	copy(shardsCopy, sm.shards)
	return shardsCopy
}

func (s *Shard) close() []error {
	var errs []error

	if s.Primary != nil {
		if err := s.Primary.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close primary for shard %d: %w", s.ShardID, err))
		}
	}

	for i, replica := range s.Replicas {
		if err := replica.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close replica %d for shard %d: %w", i, s.ShardID, err))
		}
	}

	return errs
}

// Close closes all database connections
func (sm *ShardManager) Close() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var errs []error
	for _, shard := range sm.shards {
		errs = append(errs, shard.close()...)
	}

	return errors.Join(errs...)
}

// NumShards returns the total number of shards
func (sm *ShardManager) NumShards() int {
	return sm.numShards
}

package sharding

import (
	"context"
	"fmt"
	"testing"

	"github.com/samandartukhtayev/user-registry/config"
	"github.com/samandartukhtayev/user-registry/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestShardManager(t *testing.T, n int) *ShardManager {
	cfg := testutil.SQLiteConfig(t, n)
	sm, err := NewShardManager(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	return sm
}

func TestShardManager_GetShardID(t *testing.T) {
	sm := setupTestShardManager(t, 3)

	tests := []struct {
		name     string
		shardKey string
	}{
		{"small id", ShardKey(1)},
		{"epoch millis", ShardKey(1704450600000)},
		{"negative", ShardKey(-5)},
		{"text key", "user_1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Test that the same key always returns the same shard
			shardID1 := sm.GetShardID(tt.shardKey)
			shardID2 := sm.GetShardID(tt.shardKey)

			assert.Equal(t, shardID1, shardID2, "Same key should always map to the same shard")
			assert.GreaterOrEqual(t, shardID1, 0, "Shard ID should be non-negative")
			assert.Less(t, shardID1, sm.NumShards(), "Shard ID should be less than number of shards")
		})
	}
}

func TestShardManager_ShardDistribution(t *testing.T) {
	sm := setupTestShardManager(t, 3)

	shardCounts := make(map[int]int)
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		shardCounts[sm.GetShardID(ShardKey(1704450600000+int64(i)))]++
	}

	for shardID := 0; shardID < sm.NumShards(); shardID++ {
		count := shardCounts[shardID]
		t.Logf("Shard %d: %d keys (%.2f%%)", shardID, count, float64(count)/float64(numKeys)*100)
		assert.Greater(t, count, 0, "Each shard should have at least some keys")
	}
}

func TestShardManager_GetPrimaryAndReplicaDB(t *testing.T) {
	sm := setupTestShardManager(t, 2)

	primary := sm.GetPrimaryDB(ShardKey(123))
	require.NotNil(t, primary)
	assert.NoError(t, primary.Ping(), "Primary database should be reachable")

	replica := sm.GetReplicaDB(ShardKey(123))
	require.NotNil(t, replica)
	assert.NoError(t, replica.Ping(), "Replica database should be reachable")
	assert.NotSame(t, primary, replica)
}

func TestShard_ReaderFallsBackToPrimary(t *testing.T) {
	sm := setupTestShardManager(t, 1)
	shard, err := sm.GetShardByID(0)
	require.NoError(t, err)

	bare := &Shard{ShardID: 0, Primary: shard.Primary}
	assert.Same(t, shard.Primary, bare.Reader())
	assert.Same(t, shard.Replicas[0], shard.Reader())
}

func TestShardManager_GetShardByID(t *testing.T) {
	sm := setupTestShardManager(t, 3)

	for i := 0; i < sm.NumShards(); i++ {
		shard, err := sm.GetShardByID(i)
		assert.NoError(t, err)
		assert.NotNil(t, shard)
		assert.Equal(t, i, shard.ShardID)
	}

	_, err := sm.GetShardByID(-1)
	assert.Error(t, err)

	_, err = sm.GetShardByID(sm.NumShards())
	assert.Error(t, err)
}

func TestShardManager_GetAllShards(t *testing.T) {
	sm := setupTestShardManager(t, 3)

	shards := sm.GetAllShards()
	assert.Len(t, shards, sm.NumShards())

	for i, shard := range shards {
		assert.Equal(t, i, shard.ShardID)
		assert.NotNil(t, shard.Primary)
		assert.NotEmpty(t, shard.Replicas)
	}

	shards[0] = nil
	assert.NotNil(t, sm.GetAllShards()[0], "returned slice is a copy")
}

func TestNewShardManager_NoShards(t *testing.T) {
	_, err := NewShardManager(context.Background(), config.DefaultConfig())
	assert.Error(t, err)
}

func TestNewShardManager_UnknownDriver(t *testing.T) {
	cfg := testutil.SQLiteConfig(t, 2)
	cfg.Shards[1].Replicas[0].Driver = "no-such-driver"

	_, err := NewShardManager(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("replica 0 for shard %d", 1))
}

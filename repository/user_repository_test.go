package repository

import (
	"context"
	"testing"
	"time"

	"github.com/samandartukhtayev/user-registry/config"
	"github.com/samandartukhtayev/user-registry/logging"
	"github.com/samandartukhtayev/user-registry/models"
	"github.com/samandartukhtayev/user-registry/registry"
	"github.com/samandartukhtayev/user-registry/sharding"
	"github.com/samandartukhtayev/user-registry/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) (*UserRepository, *sharding.ShardManager) {
	cfg := testutil.SQLiteConfig(t, 3)
	sm, err := sharding.NewShardManager(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	repo := NewUserRepository(sm)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	return repo, sm
}

func testUsers(n int) []models.User {
	base := time.Date(2024, time.January, 5, 10, 30, 0, 0, time.UTC)
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		clock := models.FixedClock(base.Add(time.Duration(i) * time.Second))
		users = append(users, models.NewUser(clock, "User", "user@example.com"))
	}
	return users
}

func TestUserRepository_InsertAndGet(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	user := testUsers(1)[0]
	require.NoError(t, repo.Insert(ctx, user))

	retrieved, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, retrieved)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, _ := setupTestRepository(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_EnsureSchemaIsIdempotent(t *testing.T) {
	repo, _ := setupTestRepository(t)
	assert.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestUserRepository_ShardPlacement(t *testing.T) {
	repo, sm := setupTestRepository(t)
	ctx := context.Background()

	users := testUsers(12)
	for _, user := range users {
		require.NoError(t, repo.Insert(ctx, user))
	}

	counts, err := repo.CountUsersPerShard(ctx)
	require.NoError(t, err)
	require.Len(t, counts, sm.NumShards())

	expected := make(map[int]int)
	for _, user := range users {
		expected[sm.GetShardID(sharding.ShardKey(user.ID))]++
	}
	for shardID := 0; shardID < sm.NumShards(); shardID++ {
		assert.Equal(t, expected[shardID], counts[shardID], "shard %d", shardID)
	}
}

func TestUserRepository_FetchUsers(t *testing.T) {
	repo, sm := setupTestRepository(t)
	ctx := context.Background()

	users := testUsers(9)
	// Insert newest first to check per-shard ordering
	for i := len(users) - 1; i >= 0; i-- {
		require.NoError(t, repo.Insert(ctx, users[i]))
	}

	fetched, err := repo.FetchUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, fetched)

	// Shard order, then creation order within a shard
	lastShard, lastCreated := -1, ""
	for _, u := range fetched {
		shardID := sm.GetShardID(sharding.ShardKey(u.ID))
		require.GreaterOrEqual(t, shardID, lastShard)
		if shardID == lastShard {
			assert.Greater(t, u.CreatedAt, lastCreated)
		}
		lastShard, lastCreated = shardID, u.CreatedAt
	}
}

func TestUserRepository_FetchUsers_Empty(t *testing.T) {
	repo, _ := setupTestRepository(t)

	fetched, err := repo.FetchUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, fetched)
	assert.Empty(t, fetched)
}

func TestUserRepository_FetchUsers_MissingTable(t *testing.T) {
	cfg := testutil.SQLiteConfig(t, 2)
	sm, err := sharding.NewShardManager(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	_, err = NewUserRepository(sm).FetchUsers(context.Background())
	assert.ErrorIs(t, err, registry.ErrNetwork)
}

func TestUserRepository_FetchUsers_UnscannableRow(t *testing.T) {
	cfg := testutil.SQLiteConfig(t, 1)
	sm, err := sharding.NewShardManager(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	ctx := context.Background()
	shard, err := sm.GetShardByID(0)
	require.NoError(t, err)
	_, err = shard.Primary.ExecContext(ctx, `CREATE TABLE users (id BIGINT, name TEXT, email TEXT, created_at TEXT)`)
	require.NoError(t, err)
	_, err = shard.Primary.ExecContext(ctx, `INSERT INTO users (id, name, email, created_at) VALUES (1, NULL, 'a@b.com', '2024-01-05T10:30:00.000Z')`)
	require.NoError(t, err)

	_, err = NewUserRepository(sm).FetchUsers(ctx)
	var derr *registry.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 0, derr.Index)
}

func TestUserRepository_AsRegistrySource(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	users := testUsers(4)
	for _, user := range users {
		require.NoError(t, repo.Insert(ctx, user))
	}

	reg := registry.New(config.DefaultConfig(), registry.WithSource(repo), registry.WithLogger(logging.Discard()))
	reg.AddUser(models.User{ID: 1, Name: "stale"})

	loaded, err := reg.LoadUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, loaded)

	_, found := reg.FindUserByID(1)
	assert.False(t, found, "bulk load replaces existing users")

	got, found := reg.FindUserByID(users[2].ID)
	require.True(t, found)
	assert.Equal(t, users[2], got)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/samandartukhtayev/user-registry/models"
	"github.com/samandartukhtayev/user-registry/registry"
	"github.com/samandartukhtayev/user-registry/sharding"
)

// ErrUserNotFound is returned by GetByID when no row matches
var ErrUserNotFound = errors.New("user not found")

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         BIGINT NOT NULL,
		name       TEXT   NOT NULL,
		email      TEXT   NOT NULL,
		created_at TEXT   NOT NULL
	)
`

// UserRepository reads the upstream user directory spread across shards.
// It implements registry.Source, so a registry can bulk-load from it
// instead of over HTTP.
type UserRepository struct {
	shardManager *sharding.ShardManager
}

// NewUserRepository creates a new user repository
func NewUserRepository(sm *sharding.ShardManager) *UserRepository {
	return &UserRepository{
		shardManager: sm,
	}
}

var _ registry.Source = (*UserRepository)(nil)

// Describe names the source in registry diagnostics
func (r *UserRepository) Describe() string {
	return fmt.Sprintf("sql(%d shards)", r.shardManager.NumShards())
}

// EnsureSchema creates the users table on every shard primary
func (r *UserRepository) EnsureSchema(ctx context.Context) error {
	for _, shard := range r.shardManager.GetAllShards() {
		if _, err := shard.Primary.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema on shard %d: %w", shard.ShardID, err)
		}
	}
	return nil
}

// Insert writes a user to the primary of the shard owning its id.
// Ids are not required to be unique.
func (r *UserRepository) Insert(ctx context.Context, user models.User) error {
	db := r.shardManager.GetPrimaryDB(sharding.ShardKey(user.ID))

	query := `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert user %d: %w", user.ID, err)
	}

	return nil
}

// GetByID retrieves the first user stored under id, reading from a replica
func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	db := r.shardManager.GetReplicaDB(sharding.ShardKey(id))

	query := `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = $1
		ORDER BY created_at
		LIMIT 1
	`

	var user models.User
	err := db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// FetchUsers reads every shard concurrently and returns all users, shard by
// shard in shard order, each shard ordered by creation time. Query failures
// are reported as *registry.NetworkError and row scan failures as
// *registry.DecodeError.
func (r *UserRepository) FetchUsers(ctx context.Context) ([]models.User, error) {
	shards := r.shardManager.GetAllShards()
	perShard := make([][]models.User, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		g.Go(func() error {
			users, err := r.fetchShard(gctx, shard)
			if err != nil {
				return err
			}
			perShard[i] = users
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	allUsers := make([]models.User, 0)
	for _, users := range perShard {
		allUsers = append(allUsers, users...)
	}

	return allUsers, nil
}

func (r *UserRepository) fetchShard(ctx context.Context, shard *sharding.Shard) ([]models.User, error) {
	where := fmt.Sprintf("shard %d", shard.ShardID)

	query := `
		SELECT id, name, email, created_at
		FROM users
		ORDER BY created_at, id
	`

	rows, err := shard.Reader().QueryContext(ctx, query)
	if err != nil {
		return nil, &registry.NetworkError{URL: where, Err: fmt.Errorf("failed to query users: %w", err)}
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, &registry.DecodeError{URL: where, Index: len(users), Err: err}
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, &registry.NetworkError{URL: where, Err: fmt.Errorf("error iterating rows: %w", err)}
	}

	return users, nil
}

// CountUsersPerShard returns the number of stored users, indexed by shard id
func (r *UserRepository) CountUsersPerShard(ctx context.Context) ([]int, error) {
	shards := r.shardManager.GetAllShards()
	counts := make([]int, len(shards))

	for _, shard := range shards {
		err := shard.Reader().QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&counts[shard.ShardID])
		if err != nil {
			return nil, fmt.Errorf("failed to count users in shard %d: %w", shard.ShardID, err)
		}
	}

	return counts, nil
}

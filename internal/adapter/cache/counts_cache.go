package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovee/byceps/internal/domain/guestserver"
	"github.com/ovee/byceps/internal/domain/user"
)

// CountsCache caches the per-status aggregates shown at the top of the
// admin pages. The dashboards are hit far more often than the counts
// change, so a short TTL plus invalidation on writes is enough.
type CountsCache interface {
	GetUserCounts(ctx context.Context) (*user.StatusCounts, error)
	SetUserCounts(ctx context.Context, counts user.StatusCounts) error
	InvalidateUserCounts(ctx context.Context) error

	GetServerCounts(ctx context.Context, partyID string) (*guestserver.StatusCounts, error)
	SetServerCounts(ctx context.Context, partyID string, counts guestserver.StatusCounts) error
	InvalidateServerCounts(ctx context.Context, partyID string) error
}

// RedisCountsCache implements CountsCache on Redis.
type RedisCountsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCountsCache creates a new Redis-backed counts cache.
func NewRedisCountsCache(client *redis.Client, ttl time.Duration, log *zap.Logger) CountsCache {
	return &RedisCountsCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

const userCountsKey = "counts:users"

func serverCountsKey(partyID string) string {
	return fmt.Sprintf("counts:servers:%s", partyID)
}

// GetUserCounts retrieves the cached user status counts, nil on miss.
func (c *RedisCountsCache) GetUserCounts(ctx context.Context) (*user.StatusCounts, error) {
	var counts user.StatusCounts
	found, err := c.get(ctx, userCountsKey, &counts)
	if err != nil || !found {
		return nil, err
	}
	return &counts, nil
}

// SetUserCounts stores the user status counts.
func (c *RedisCountsCache) SetUserCounts(ctx context.Context, counts user.StatusCounts) error {
	return c.set(ctx, userCountsKey, counts)
}

// InvalidateUserCounts drops the cached user status counts.
func (c *RedisCountsCache) InvalidateUserCounts(ctx context.Context) error {
	return c.invalidate(ctx, userCountsKey)
}

// GetServerCounts retrieves the cached server status counts for a party,
// nil on miss.
func (c *RedisCountsCache) GetServerCounts(ctx context.Context, partyID string) (*guestserver.StatusCounts, error) {
	var counts guestserver.StatusCounts
	found, err := c.get(ctx, serverCountsKey(partyID), &counts)
	if err != nil || !found {
		return nil, err
	}
	return &counts, nil
}

// SetServerCounts stores the server status counts for a party.
func (c *RedisCountsCache) SetServerCounts(ctx context.Context, partyID string, counts guestserver.StatusCounts) error {
	return c.set(ctx, serverCountsKey(partyID), counts)
}

// InvalidateServerCounts drops the cached server status counts for a party.
func (c *RedisCountsCache) InvalidateServerCounts(ctx context.Context, partyID string) error {
	return c.invalidate(ctx, serverCountsKey(partyID))
}

func (c *RedisCountsCache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.log.Debug("counts cache miss", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		c.log.Error("failed to get counts from cache", zap.String("key", key), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Error("failed to unmarshal cached counts", zap.String("key", key), zap.Error(err))
		return false, err
	}

	c.log.Debug("counts cache hit", zap.String("key", key))
	return true, nil
}

func (c *RedisCountsCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set counts cache", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

func (c *RedisCountsCache) invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error("failed to invalidate counts cache", zap.String("key", key), zap.Error(err))
		return err
	}
	c.log.Debug("invalidated counts cache", zap.String("key", key))
	return nil
}

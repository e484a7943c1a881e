package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "rbac:perms:"

// Cache holds recently resolved permission sets in Redis. A nil Cache (or
// nil client) disables caching and every resolution hits the repository.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached permission list for the user, if present.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKeyPrefix+userID.String()).Bytes()
	if err != nil {
		return nil, false
	}
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

// Set stores the permission list for the user with the configured TTL.
func (c *Cache) Set(ctx context.Context, userID uuid.UUID, perms []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+userID.String(), raw, c.ttl).Err()
}

// Invalidate drops the cached set for the user. Called after grants,
// revocations and assignment pruning.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, cacheKeyPrefix+userID.String()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

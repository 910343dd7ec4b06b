package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// CachedProvider decorates a Provider with a Redis profile cache. Every
// authenticated request resolves the caller's profile, so hitting the
// provider API each time would burn its rate budget fast; profiles change
// rarely and a short TTL keeps them fresh enough.
// Cache faults are logged and fall through to the inner provider.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCachedProvider(inner Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{inner: inner, client: client, ttl: ttl, prefix: "user:"}
}

func (c *CachedProvider) GetUser(ctx context.Context, id string) (*User, error) {
	key := c.prefix + id
	if b, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var u User
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		_ = c.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		logger.Warnf("user cache read failed for %s: %v", id, err)
	}

	u, err := c.inner.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(u); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			logger.Warnf("user cache write failed for %s: %v", id, err)
		}
	}
	return u, nil
}

// Email lookups and searches are not cached: both are rare (invite dialogs)
// and keying a cache by free-text query buys nothing.
func (c *CachedProvider) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.inner.GetUserByEmail(ctx, email)
}

func (c *CachedProvider) SearchUsers(ctx context.Context, query string, limit int) ([]User, error) {
	return c.inner.SearchUsers(ctx, query, limit)
}

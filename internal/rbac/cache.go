package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheVersionKey = "rbac:perms:version"

// Cache is a read-through permission code cache keyed by admin id behind a
// global version counter. Mutations bump the version so that every cached set
// is invalidated at once; role edits affect all holders of the role, so
// per-admin invalidation would under-invalidate.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Codes serves the admin's permission codes from the cache, populating it via
// the loader on miss. Concurrent misses for the same admin collapse to a
// single loader call. Redis failures fall through to the loader.
func (c *Cache) Codes(ctx context.Context, adminID string, loader func(context.Context) ([]string, error)) ([]string, error) {
	if loader == nil {
		return nil, errors.New("rbac: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key, err := c.buildKey(ctx, adminID)
	if err != nil {
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var codes []string
		if err := json.Unmarshal(payload, &codes); err == nil {
			return codes, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		codes, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(codes); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return codes, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

// Invalidate bumps the global version, orphaning every cached set. Orphaned
// keys expire via their TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) buildKey(ctx context.Context, adminID string) (string, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:perms:%d:%s", ver, adminID), nil
}

package dicts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheTTL = 10 * time.Minute

// ItemCache is a Redis read-through cache over dictionary item listings,
// keyed by type code. Concurrent misses for the same key are collapsed into
// a single database load.
type ItemCache struct {
	client *redis.Client
	logger *slog.Logger
	group  singleflight.Group
}

// NewItemCache constructs an ItemCache.
func NewItemCache(client *redis.Client, logger *slog.Logger) *ItemCache {
	return &ItemCache{client: client, logger: logger}
}

func cacheKey(typeCode string) string {
	return "dict:items:" + typeCode
}

// Items returns the cached item list for a type, loading and caching on a
// miss. Cache failures degrade to the loader, never to an error.
func (c *ItemCache) Items(ctx context.Context, typeCode string, load func(context.Context) ([]DictItem, error)) ([]DictItem, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	key := cacheKey(typeCode)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var items []DictItem
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		c.logger.Warn("dict cache entry corrupt", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("dict cache read failed", "key", key, "error", err)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(items); err == nil {
			if err := c.client.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
				c.logger.Warn("dict cache write failed", "key", key, "error", err)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]DictItem), nil
}

// Invalidate drops the cached listing for a type after a mutation.
func (c *ItemCache) Invalidate(ctx context.Context, typeCode string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(typeCode)).Err(); err != nil {
		c.logger.Warn("dict cache invalidate failed", "typeCode", typeCode, "error", err)
	}
}

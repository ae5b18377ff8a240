/*-------------------------------------------------------------------------
 *
 * catalog.go
 *    Redis read-through cache for evaluation catalog entries
 *
 * Evaluation batches hit the catalog once per requested id, so hot entries
 * are cached with a short TTL. The cache degrades to pass-through when
 * Redis is not configured or unreachable.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/cache/catalog.go
 *
 *-------------------------------------------------------------------------
 */

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "datagrub:catalog:"

/* CatalogBackend is the store this cache fronts */
type CatalogBackend interface {
	GetCatalogEntry(ctx context.Context, id string) (*db.CatalogEntry, error)
}

/* CatalogCache is a read-through cache over a catalog backend */
type CatalogCache struct {
	backend CatalogBackend
	client  *redis.Client
	ttl     time.Duration
}

/* NewCatalogCache wraps backend with Redis caching. A nil client yields a
 * pass-through cache. */
func NewCatalogCache(backend CatalogBackend, client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		backend: backend,
		client:  client,
		ttl:     ttl,
	}
}

func (c *CatalogCache) GetCatalogEntry(ctx context.Context, id string) (*db.CatalogEntry, error) {
	if c.client == nil {
		return c.backend.GetCatalogEntry(ctx, id)
	}

	key := keyPrefix + id
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var entry db.CatalogEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			return &entry, nil
		}
		/* Corrupt cache entry: fall through to the backend and overwrite */
	} else if !errors.Is(err, redis.Nil) {
		metrics.WarnWithContext(ctx, "Catalog cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	entry, err := c.backend.GetCatalogEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entry); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			metrics.WarnWithContext(ctx, "Catalog cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return entry, nil
}

/* Invalidate drops a cached entry after catalog mutation */
func (c *CatalogCache) Invalidate(ctx context.Context, id string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		metrics.WarnWithContext(ctx, "Catalog cache invalidation failed", map[string]interface{}{
			"key":   keyPrefix + id,
			"error": err.Error(),
		})
	}
}

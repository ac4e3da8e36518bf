package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"avatio/internal/middleware"
	"avatio/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is the entity cache. A nil Cache, or one without a client, misses
// every read and treats every write and purge as a no-op.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client returns the underlying Redis client, nil when running without Redis.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON reads key into dest. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v under key with ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis, or calls fetch to fill dest and stores the
// result. A failing cache degrades to a miss; errors from fetch are returned as is.
// A purge of key that lands while fetch runs discards the fill.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	return c.fill(ctx, key, key, dest, ttl, fetch)
}

// AsideVariant is Aside for a key derived from entityKey. The variant is
// tracked in the same transaction that stores it, and the store is dropped
// if entityKey is purged while fetch runs.
func (c *Cache) AsideVariant(ctx context.Context, entityKey, key string, dest any, ttl time.Duration, fetch func() error) error {
	return c.fill(ctx, entityKey, key, dest, ttl, fetch)
}

func (c *Cache) fill(ctx context.Context, entityKey, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if found {
		return nil
	}
	if !c.enabled() {
		return fetch()
	}

	fetched := false
	var fetchErr error
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		fetched = true
		if fetchErr = fetch(); fetchErr != nil {
			return fetchErr
		}
		b, err := json.Marshal(dest)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if key != entityKey {
				p.SAdd(ctx, variantsKey(entityKey), key)
			}
			p.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, generationKey(entityKey))

	switch {
	case fetchErr != nil:
		return fetchErr
	case !fetched:
		// Redis failed before the fill started.
		middleware.Logger.WarnContext(ctx, "cache watch failed", "key", key, "error", err)
		return fetch()
	case errors.Is(err, redis.TxFailedErr):
		middleware.Logger.DebugContext(ctx, "cache fill raced a purge, not stored", "key", key)
	case err != nil:
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// Track records variantKey as derived from entityKey so Purge(entityKey) removes it.
func (c *Cache) Track(ctx context.Context, entityKey, variantKey string) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.SAdd(ctx, variantsKey(entityKey), variantKey).Err()
}

// Purge deletes each entity key, every variant tracked for it, and the
// tracking set itself. The generation bump comes first so a fill already
// in flight either aborts or is stored in time to be deleted here.
func (c *Cache) Purge(ctx context.Context, entityKeys ...string) error {
	if !c.enabled() || len(entityKeys) == 0 {
		return nil
	}

	var errs []error
	for _, key := range entityKeys {
		if err := c.rdb.Incr(ctx, generationKey(key)).Err(); err != nil {
			errs = append(errs, err)
		}
		vk := variantsKey(key)
		variants, err := c.rdb.SMembers(ctx, vk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			errs = append(errs, err)
		}
		keys := append([]string{key, vk}, variants...)
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		observability.CachePurgeErrors.Inc()
		return err
	}
	return nil
}

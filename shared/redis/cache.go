package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var errStaleLoad = errors.New("view cache: key invalidated during load")

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
//
// Every key has a companion version counter that Invalidate bumps. A load
// is only written back when the counter is unchanged since the load began,
// so a read that overlaps a mutation never repopulates the cache with the
// pre-mutation view.
//
// A nil *ViewCache always misses, so callers need no Redis-enabled checks.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewViewCache creates a ViewCache backed by the provided Redis client.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl}
}

func versionKey(key string) string { return key + ":version" }

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("view cache read failed")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("view cache entry is corrupt")
		return nil, false
	}
	return &v, true
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Cache failures are logged and never returned; only load errors are.
func (c *ViewCache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	version, err := c.client.Get(ctx, versionKey(key)).Int64()
	if err != nil && err != goredis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("view cache version read failed")
		return load(ctx)
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.storeIfCurrent(ctx, key, version, v)
	return v, nil
}

// storeIfCurrent writes value under key inside a WATCH on the version
// counter, so an Invalidate landing between the check and the write aborts it.
func (c *ViewCache[T]) storeIfCurrent(ctx context.Context, key string, version int64, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("view cache marshal failed")
		return
	}

	vk := versionKey(key)
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && err != goredis.Nil {
			return err
		}
		if current != version {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, vk)

	switch {
	case err == nil:
	case errors.Is(err, errStaleLoad), errors.Is(err, goredis.TxFailedErr):
		log.Debug().Str("key", key).Msg("view cache load overlapped an invalidation, not stored")
	default:
		log.Warn().Err(err).Str("key", key).Msg("view cache write failed")
	}
}

// Invalidate removes key and bumps its version so that loads already in
// flight discard their result instead of caching it.
func (c *ViewCache[T]) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("view cache invalidate failed")
	}
}

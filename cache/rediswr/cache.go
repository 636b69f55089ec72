package rediswr

import (
	"context"
	"errors"
	"time"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/result"
)

// Cache is a cache.Cache on top of any go-redis command set.
type Cache struct {
	rdb    redis.Cmdable
	prefix string
	log    logger.Logger
}

var _ cache.Cache = (*Cache)(nil)

// NewCache wraps rdb. Every key is prefixed with prefix.
func NewCache(rdb redis.Cmdable, prefix string, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, log: log.Named("redis_cache")}
}

func (c *Cache) GetRaw(ctx context.Context, key string) result.Result[*string] {
	return result.Do(ctx, func(ctx context.Context) (*string, error) {
		v, err := c.rdb.Get(ctx, c.prefix+key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil //nolint:nilnil // a miss is not an error
		}
		if err != nil {
			return nil, err
		}
		return &v, nil
	}, c.cacheErr("Failed to get cache value", key))
}

func (c *Cache) SetRaw(ctx context.Context, key, value string, ttl time.Duration) result.Result[struct{}] {
	return result.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.rdb.Set(ctx, c.prefix+key, value, ttl).Err()
	}, c.cacheErr("Failed to set cache value", key))
}

func (c *Cache) Delete(ctx context.Context, key string) result.Result[bool] {
	return result.Do(ctx, func(ctx context.Context) (bool, error) {
		n, err := c.rdb.Del(ctx, c.prefix+key).Result()
		return n > 0, err
	}, c.cacheErr("Failed to delete cache value", key))
}

func (c *Cache) Exists(ctx context.Context, key string) result.Result[bool] {
	return result.Do(ctx, func(ctx context.Context) (bool, error) {
		n, err := c.rdb.Exists(ctx, c.prefix+key).Result()
		return n > 0, err
	}, c.cacheErr("Failed to check cache key existence", key))
}

func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) result.Result[bool] {
	return result.Do(ctx, func(ctx context.Context) (bool, error) {
		return c.rdb.Expire(ctx, c.prefix+key, ttl).Result()
	}, c.cacheErr("Failed to set cache expiry", key))
}

func (c *Cache) Ping(ctx context.Context) result.Result[string] {
	return result.Do(ctx, func(ctx context.Context) (string, error) {
		return c.rdb.Ping(ctx).Result()
	}, c.cacheErr("Failed to ping cache", ""))
}

func (c *Cache) cacheErr(msg, key string) func(error) error {
	return func(err error) error {
		details := errx.D{}
		if key != "" {
			details["key"] = key
		}
		e := apperr.Cache(msg, err, details)
		c.log.Errorx(e)
		return e
	}
}

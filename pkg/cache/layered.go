package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache combines an in-process cache with Redis. Reads check the
// local layer first and backfill it on a Redis hit. Writes go through
// to both layers.
type LayeredCache struct {
	local  Service
	remote Service
}

// NewLayeredCache builds a two-tier cache over the given layers.
func NewLayeredCache(local, remote Service) *LayeredCache {
	return &LayeredCache{local: local, remote: remote}
}

func (c *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	// Local layer is best effort.
	_ = c.local.Set(ctx, key, value, expiration)
	return nil
}

func (c *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.local.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if err := c.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = c.local.Set(ctx, key, dest, time.Minute)
	return nil
}

func (c *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.local.Delete(ctx, keys...)
	return c.remote.Delete(ctx, keys...)
}

func (c *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, err := c.local.Exists(ctx, keys...); err == nil && ok {
		return true, nil
	}
	return c.remote.Exists(ctx, keys...)
}

func (c *LayeredCache) Close() error {
	lerr := c.local.Close()
	rerr := c.remote.Close()
	if rerr != nil {
		return rerr
	}
	return lerr
}

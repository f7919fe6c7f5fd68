package redis

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"time"

	"skillmatch/common/cache"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func New(opts cache.Options) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = cache.DefaultOptions().DefaultTTL
	}

	return &Cache{client: client, defaultTTL: ttl}
}

// Ping verifies the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	switch value.(type) {
	case string, []byte, encoding.BinaryMarshaler:
	default:
		return cache.ErrInvalidValue
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, key string, value interface{}) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.ErrNotFound
	}
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case *string:
		*v = string(val)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(val)
	default:
		return cache.ErrInvalidValue
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOpener opens collections backed by Redis hashes, one hash per
// collection name. Connection handling follows the RedisClient wrapper this
// codebase already used for its cache/session repositories.
type RedisOpener struct {
	client *redis.Client
}

// NewRedisOpener dials Redis and verifies connectivity before returning.
func NewRedisOpener(redisURL string) (*RedisOpener, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("storage: failed to connect to Redis: %w", err)
	}

	return &RedisOpener{client: client}, nil
}

func (o *RedisOpener) Collection(ctx context.Context, name string) (Collection, error) {
	return &redisCollection{client: o.client, hashKey: "collection:" + name}, nil
}

func (o *RedisOpener) Close() error { return o.client.Close() }

type redisCollection struct {
	client  *redis.Client
	hashKey string
}

func (c *redisCollection) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.client.HGet(ctx, c.hashKey, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: redis get %s/%s: %w", c.hashKey, key, err)
	}
	return v, nil
}

func (c *redisCollection) Put(ctx context.Context, key string, value []byte) error {
	if err := c.client.HSet(ctx, c.hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("storage: redis put %s/%s: %w", c.hashKey, key, err)
	}
	return nil
}

func (c *redisCollection) Delete(ctx context.Context, key string) error {
	if err := c.client.HDel(ctx, c.hashKey, key).Err(); err != nil {
		return fmt.Errorf("storage: redis delete %s/%s: %w", c.hashKey, key, err)
	}
	return nil
}

func (c *redisCollection) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.client.HKeys(ctx, c.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: redis keys %s: %w", c.hashKey, err)
	}
	return keys, nil
}

var _ Opener = (*RedisOpener)(nil)

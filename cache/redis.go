package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by the backend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis stores encoded images in a Redis server.
type Redis struct {
	client         RedisClient
	defaultTimeout time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client RedisClient, defaultTimeout time.Duration) *Redis {
	return &Redis{client: client, defaultTimeout: defaultTimeout}
}

// NewRedisFromAddr dials addr lazily; the connection is established on first
// use.
func NewRedisFromAddr(addr, password string, db int, defaultTimeout time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedis(client, defaultTimeout)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value; a resolved timeout of 0 stores without expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte, timeout time.Duration) error {
	return r.client.Set(ctx, key, value, resolveTimeout(timeout, r.defaultTimeout)).Err()
}

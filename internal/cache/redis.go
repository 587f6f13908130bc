package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a go-redis client. Enqueue/dequeue callers
// rely on redis list push/pop being atomic, so no item is handed to two
// consumers concurrently.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies connectivity.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client; used by tests with miniredis.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %q: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) AddIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) LPush(ctx context.Context, key, value string) error {
	if err := s.client.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("redis lpush %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) LLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen %q: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) BRPop(ctx context.Context, timeout time.Duration, keys ...string) (string, string, error) {
	res, err := s.client.BRPop(ctx, timeout, keys...).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", ErrMiss
	}
	if err != nil {
		return "", "", fmt.Errorf("redis brpop: %w", err)
	}
	// BRPOP replies [key, value].
	return res[0], res[1], nil
}

// compile-time check that RedisStore implements Store
var _ Store = (*RedisStore)(nil)

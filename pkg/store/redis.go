package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tkarrer/deckhand/pkg/observability"
)

// RedisStore is a Redis-backed store for multi-instance server deployments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store from a connection URL
// (e.g. "redis://localhost:6379/0"). The connection is verified with a
// ping before the store is returned.
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Get retrieves the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		observability.Store().OnGet(ctx, "redis", false)
		return "", ErrNotFound
	}
	if err != nil {
		observability.Store().OnError(ctx, "redis", "get", err)
		return "", fmt.Errorf("redis get: %w", err)
	}
	observability.Store().OnGet(ctx, "redis", true)
	return value, nil
}

// Set stores value under key. Values have no TTL; dashboard state lives
// until explicitly deleted.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		observability.Store().OnError(ctx, "redis", "set", err)
		return fmt.Errorf("redis set: %w", err)
	}
	observability.Store().OnSet(ctx, "redis", len(value))
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		observability.Store().OnError(ctx, "redis", "delete", err)
		return fmt.Errorf("redis delete: %w", err)
	}
	observability.Store().OnDelete(ctx, "redis")
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

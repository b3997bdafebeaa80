package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/drschille/CRDT-Server/internal/logger"
)

const redisKeyPrefix = "crdt:"

// Redis stores blobs under prefixed keys. A SET is atomic, so the
// replacement contract holds.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis using a redis:// URL.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("redis connection established")
	return &Redis{client: client}, nil
}

// Read returns the blob under key, or (nil, nil) when the key is absent.
func (s *Redis) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Write replaces the blob under key.
func (s *Redis) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob under key.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Redis) Close() {
	s.client.Close()
}

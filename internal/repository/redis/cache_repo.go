package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// CacheRepo implements repository.CacheRepository
type CacheRepo struct {
	client redis.UniversalClient
}

// NewCacheRepo creates the cache repository and fails on a nil client
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

// Set stores a value
func (r *CacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get reads a value, ErrNotFound when the key is missing
func (r *CacheRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// Delete removes a key
func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Exists checks whether a key exists
func (r *CacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// SetNX sets the key only if it does not exist yet.
// Returns true when the key was set, false when it already existed.
func (r *CacheRepo) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

// Increment bumps a counter and starts its window on the first hit
func (r *CacheRepo) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && window > 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("set ttl for %s: %w", key, err)
		}
	}
	return count, nil
}

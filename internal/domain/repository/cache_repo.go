package repository

import (
	"context"
	"time"
)

// CacheRepository is the shared key/value cache used across instances.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// SetNX sets the key only if it does not exist and reports whether it did.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// Increment adds one and sets the TTL when the key is created.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

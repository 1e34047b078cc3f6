package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is the absence sentinel. Backend outages are surfaced as real
// errors so callers can decide whether to fail open.
var ErrMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// TTL reports whether the key exists and its remaining lifetime.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
}

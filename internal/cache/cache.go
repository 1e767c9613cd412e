package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with a TTL. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, hit bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

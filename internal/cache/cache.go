// Package cache defines the render cache contract. Values are rendered
// PNG payloads keyed by layer, bbox and render window.
package cache

import (
	"context"
	"time"
)

type Interface interface {
	// Get returns the cached payload and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

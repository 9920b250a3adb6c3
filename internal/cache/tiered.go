package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avolkov/sentinel-gateway/internal/cache/redisstore"
	"github.com/avolkov/sentinel-gateway/internal/core/observability"
)

// Tiered keeps a small in-process LRU in front of Redis. Reads hit the
// LRU first and promote Redis hits; writes and deletes go to both tiers.
type Tiered struct {
	local *lru.Cache[string, []byte]
	redis *redisstore.Client
}

func NewTiered(rc *redisstore.Client, localSize int) (*Tiered, error) {
	if localSize <= 0 {
		localSize = 128
	}
	l, err := lru.New[string, []byte](localSize)
	if err != nil {
		return nil, err
	}
	return &Tiered{local: l, redis: rc}, nil
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, ok := t.local.Get(key); ok {
		observability.IncCacheHit()
		return val, true, nil
	}
	val, ok, err := t.redis.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		observability.IncCacheMiss()
		return nil, false, nil
	}
	t.local.Add(key, val)
	observability.IncCacheHit()
	return val, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	t.local.Add(key, val)
	return t.redis.Set(ctx, key, val, ttl)
}

func (t *Tiered) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		t.local.Remove(k)
	}
	return t.redis.Del(ctx, keys...)
}

var _ Interface = (*Tiered)(nil)

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"farmflow/internal/config"
	"farmflow/internal/notify"
)

// Cache is an optional read-through cache for crop snapshots. The database
// stays authoritative; a cache miss or a redis fault simply falls through to
// the repository.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(cfg config.CacheConfig) *Cache {
	return &Cache{
		Client: redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		}),
		TTL: cfg.TTL,
	}
}

func cropKey(id uint64) string {
	return fmt.Sprintf("farmflow:crop:%d", id)
}

func (c *Cache) GetCrop(ctx context.Context, id uint64) ([]byte, bool) {
	if c == nil || c.Client == nil {
		return nil, false
	}
	b, err := c.Client.Get(ctx, cropKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *Cache) SetCrop(ctx context.Context, id uint64, value []byte) {
	if c == nil || c.Client == nil {
		return
	}
	_ = c.Client.Set(ctx, cropKey(id), value, c.TTL).Err()
}

func (c *Cache) DeleteCrop(ctx context.Context, id uint64) {
	if c == nil || c.Client == nil {
		return
	}
	_ = c.Client.Del(ctx, cropKey(id)).Err()
}

// Invalidator drops cached crop snapshots when a mutating event names a crop.
// It plugs into the notifier fanout so the ledger needs no cache awareness.
type Invalidator struct {
	Cache *Cache
}

func (i *Invalidator) Publish(ctx context.Context, event notify.Event) {
	if i == nil || i.Cache == nil || event.Fields == nil {
		return
	}
	raw, ok := event.Fields["crop_id"]
	if !ok {
		return
	}
	switch id := raw.(type) {
	case uint64:
		i.Cache.DeleteCrop(ctx, id)
	case int64:
		if id > 0 {
			i.Cache.DeleteCrop(ctx, uint64(id))
		}
	}
}

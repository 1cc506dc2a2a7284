package nationwide

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yanqian/disha/pkg/kv"
)

// Cache persists the nationwide summary as one JSON value under a fixed key.
type Cache struct {
	store  kv.Store
	key    string
	logger *slog.Logger
}

// NewCache builds a cache over store.
func NewCache(store kv.Store, key string, logger *slog.Logger) *Cache {
	return &Cache{store: store, key: key, logger: logger}
}

// Load returns the cached summary, or nil when absent or unreadable.
func (c *Cache) Load(ctx context.Context) *CachedSummary {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn("nationwide cache read failed", "key", c.key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var cached CachedSummary
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("nationwide cache malformed", "key", c.key, "error", err)
		return nil
	}
	if cached.FetchedAtMillis <= 0 {
		c.logger.Warn("nationwide cache missing timestamp", "key", c.key)
		return nil
	}
	return &cached
}

// Save overwrites the cached summary.
func (c *Cache) Save(ctx context.Context, summary CachedSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, payload, 0)
}

// IsStale reports whether cached is missing or older than ttl.
func IsStale(cached *CachedSummary, nowMillis, ttlMillis int64) bool {
	if cached == nil {
		return true
	}
	return nowMillis-cached.FetchedAtMillis > ttlMillis
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

package geocoding

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/pkg/metrics"
)

// Reverser is anything that resolves a point to a place.
type Reverser interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error)
}

// CachedGeocoder wraps a Reverser with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   Reverser
	cache   *lruCache
	metrics *metrics.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner Reverser, maxEntries int, m *metrics.Metrics) *CachedGeocoder {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &CachedGeocoder{inner: inner, cache: newLRUCache(maxEntries), metrics: m}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	if place, ok := c.cache.get(key); ok {
		c.record("hit")
		return place, nil
	}
	c.record("miss")
	place, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return place, err
	}
	// Empty answers are not cached so they can be retried.
	if place.Name != "" || place.FormattedAddress != "" {
		c.cache.put(key, place)
	}
	return place, nil
}

func (c *CachedGeocoder) record(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

// Fallback tries each geocoder in order and returns the first answer.
type Fallback []Reverser

func (f Fallback) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	var lastErr error
	for _, r := range f {
		place, err := r.ReverseGeocode(ctx, lat, lon)
		if err == nil {
			return place, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no geocoder configured")
	}
	return geo.Place{}, lastErr
}

type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
}

type lruEntry struct {
	key   string
	value geo.Place
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (geo.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return geo.Place{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lruCache) put(key string, value geo.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Package kv defines the key-value persistence contract behind every piece of
// state the gateway keeps between requests.
package kv

import (
	"context"
	"time"
)

// Store is a flat key-value store. Values are opaque bytes; a zero ttl keeps
// the entry until it is overwritten or removed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

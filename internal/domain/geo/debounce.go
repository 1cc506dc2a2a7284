package geo

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// debouncer lets only the latest call per key through once the window has
// passed without a newer call. Tokens come from one monotonic counter, so a
// stale request can never match a newer one.
type debouncer struct {
	clock  clockwork.Clock
	window time.Duration

	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

func newDebouncer(clock clockwork.Clock, window time.Duration) *debouncer {
	return &debouncer{
		clock:  clock,
		window: window,
		latest: make(map[string]uint64),
	}
}

// Wait blocks for the window and reports whether this call is still the
// latest one for key.
func (d *debouncer) Wait(ctx context.Context, key string) (bool, error) {
	if d.window <= 0 {
		return true, nil
	}
	d.mu.Lock()
	d.seq++
	token := d.seq
	d.latest[key] = token
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		d.release(key, token)
		return false, ctx.Err()
	case <-d.clock.After(d.window):
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest[key] != token {
		return false, nil
	}
	delete(d.latest, key)
	return true, nil
}

func (d *debouncer) release(key string, token uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest[key] == token {
		delete(d.latest, key)
	}
}

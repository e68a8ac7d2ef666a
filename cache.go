package hypergate

import (
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"
)

// ExpiringCache is a generic key→value map whose entries expire after
// sitting unused for a TTL. `Get` either returns a live entry (refreshing
// its last-access time) or serializes construction of a new one behind the
// cache lock, so N concurrent first requests for a key run the factory
// exactly once.
//
// A single coarse mutex covers lookup, insert and eviction. That is a
// deliberate, revisitable simplification: factories do no I/O and lookups
// are rare next to simulation-frame work, so contention has never shown up.
// Shard by a hash of the key if it ever does.
//
// Keys are compared byte-for-byte. For connector caching this means two
// endpoint URLs naming the same grid with different spellings get two
// entries; no certificate or identity check is attempted.
type ExpiringCache[T any] struct {
	lk    sync.Mutex
	items map[string]*cacheEntry[T]
	ttl   time.Duration

	lastSweep time.Time

	msink  metrics.MetricSink
	labels []metrics.Label
}

type cacheEntry[T any] struct {
	value      T
	lastAccess time.Time
}

func NewExpiringCache[T any](ttl time.Duration, msink metrics.MetricSink, labels []metrics.Label) *ExpiringCache[T] {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if msink == nil {
		msink = metrics.Default()
	}
	return &ExpiringCache[T]{
		items:     make(map[string]*cacheEntry[T]),
		ttl:       ttl,
		lastSweep: time.Now(),
		msink:     msink,
		labels:    labels,
	}
}

// Get returns the live value for `key`, or builds one with `factory`.
// The factory runs under the cache lock and so MUST NOT perform network
// I/O. When it errors nothing is inserted and the zero T is returned.
func (c *ExpiringCache[T]) Get(key string, factory func() (T, error)) (T, error) {
	if factory == nil {
		var zero T
		return zero, ErrNoFactory
	}

	now := time.Now()

	c.lk.Lock()
	defer c.lk.Unlock()

	c.maybeSweep(now)

	entry, has := c.items[key]
	if has && now.Sub(entry.lastAccess) <= c.ttl {
		entry.lastAccess = now
		c.msink.IncrCounterWithLabels(MetricCacheHitCount, 1.0, c.labels)
		return entry.value, nil
	}

	c.msink.IncrCounterWithLabels(MetricCacheMissCount, 1.0, c.labels)

	value, err := factory()
	if err != nil {
		var zero T
		return zero, err
	}

	c.items[key] = &cacheEntry[T]{
		value:      value,
		lastAccess: now,
	}
	return value, nil
}

// Len reports the number of entries currently held, expired ones included
// until the next sweep touches them.
func (c *ExpiringCache[T]) Len() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return len(c.items)
}

// maybeSweep lazily drops expired entries. No background goroutine: the
// sweep piggybacks on lookups, at most once per TTL.
func (c *ExpiringCache[T]) maybeSweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.lastSweep = now
	for key, entry := range c.items {
		if now.Sub(entry.lastAccess) > c.ttl {
			delete(c.items, key)
			c.msink.IncrCounterWithLabels(MetricCacheEvictCount, 1.0, c.labels)
		}
	}
}

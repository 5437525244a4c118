package expiringcache

import (
	"context"
	"sync"
)

// Cache is a cache container with per-entry expiration. It owns a storage
// backend and an eviction strategy and drives the strategy's event protocol.
// All strategy calls are serialized behind an internal mutex, so a Cache is
// safe for concurrent use even though strategies themselves are not.
type Cache[K KeyConstraint, V Expirable] struct {
	storage  CacheStorage[K, V]
	strategy Strategy[K]
	clock    Clock

	mu sync.Mutex
}

// NewCache creates a cache backed by the given storage and strategy.
func NewCache[K KeyConstraint, V Expirable](storage CacheStorage[K, V], strategy Strategy[K], opts ...CacheOption[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		storage:  storage,
		strategy: strategy,
		clock:    SystemClock,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// CacheOption is the interface for the options of the cache.
type CacheOption[K KeyConstraint, V Expirable] interface {
	apply(*Cache[K, V])
}

type cacheOptionFunc[K KeyConstraint, V Expirable] func(*Cache[K, V])

func (f cacheOptionFunc[K, V]) apply(c *Cache[K, V]) {
	f(c)
}

// WithClock sets the clock used for validity probes and eviction sweeps.
// The default is SystemClock.
func WithClock[K KeyConstraint, V Expirable](clock Clock) CacheOption[K, V] {
	return cacheOptionFunc[K, V](func(c *Cache[K, V]) {
		c.clock = clock
	})
}

// Set stores the value under key. The entry's expiration time is taken from
// the value itself. An already-expired value is stored anyway; it is dropped
// by the next Get or EvictExpired.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := value.Expiration()
	if err := c.storage.Set(ctx, &CacheEntry[K, V]{
		Entry:     Entry[K, V]{Key: key, Value: value},
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	c.strategy.Associate(key, expiresAt)
	return nil
}

// Get retrieves the value under key. An entry the strategy reports as
// expired is removed and treated as a miss.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, err := c.storage.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if entry == nil {
		return zero, false, nil
	}

	if expired, tracked := c.strategy.IsExpired(key, c.clock.Now()); tracked && expired {
		if err := c.storage.Delete(ctx, key); err != nil {
			return zero, false, err
		}
		c.strategy.Dissociate(key)
		return zero, false, nil
	}

	c.strategy.Touch(key)
	return entry.Value, true, nil
}

// Has reports whether a valid entry exists under key.
// Unlike Get it never removes an expired entry.
func (c *Cache[K, V]) Has(ctx context.Context, key K) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.storage.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	expired, tracked := c.strategy.IsExpired(key, c.clock.Now())
	return !(tracked && expired), nil
}

// Delete removes the entry under key. Deleting an absent key is not an error.
func (c *Cache[K, V]) Delete(ctx context.Context, key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.Delete(ctx, key); err != nil {
		return err
	}
	c.strategy.Dissociate(key)
	return nil
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.Clear(ctx); err != nil {
		return err
	}
	c.strategy.Clear()
	return nil
}

// EvictExpired removes every entry whose deadline has passed and returns the
// evicted keys. If a storage deletion fails, the keys evicted so far are
// returned along with the error; the remaining candidates stay tracked and
// are picked up by the next sweep.
func (c *Cache[K, V]) EvictExpired(ctx context.Context) ([]K, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := c.strategy.CollectExpired(c.clock.Now())
	evicted := make([]K, 0, len(candidates))
	for _, key := range candidates {
		if err := c.storage.Delete(ctx, key); err != nil {
			return evicted, err
		}
		c.strategy.Dissociate(key)
		evicted = append(evicted, key)
	}
	return evicted, nil
}

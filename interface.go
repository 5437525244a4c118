package expiringcache

import (
	"context"
	"time"
)

// KeyConstraint is an interface for key constraints.
type KeyConstraint interface {
	comparable
}

// ValueConstraint is an interface for value constraints.
type ValueConstraint interface {
	any
}

// Expirable is the capability a cached value must provide.
// Expiration returns the absolute point in time after which the value is
// considered invalid. The cache never computes or guesses this value.
type Expirable interface {
	Expiration() time.Time
}

// WithExpiration wraps an arbitrary value together with an explicit
// expiration time so it can be cached without implementing Expirable itself.
type WithExpiration[V ValueConstraint] struct {
	// Value is the wrapped value.
	Value V

	// ExpiresAt is the absolute expiration time of the value.
	ExpiresAt time.Time
}

var _ Expirable = WithExpiration[struct{}]{}

// Expiration returns the wrapped expiration time.
func (w WithExpiration[V]) Expiration() time.Time {
	return w.ExpiresAt
}

// Clone returns a copy of the wrapper. The wrapped value is not deep-copied;
// wrap only values that are safe to share, or provide a custom ValueCloner.
func (w WithExpiration[V]) Clone() WithExpiration[V] {
	return w
}

// Entry is a key-value pair.
type Entry[K KeyConstraint, V ValueConstraint] struct {
	// Key is the key of the entry.
	Key K

	// Value is the value associated with the key.
	Value V
}

// CacheEntry is a key-value pair with an expiration time.
type CacheEntry[K KeyConstraint, V ValueConstraint] struct {
	Entry[K, V]

	// ExpiresAt is the absolute expiration time of the entry.
	// This field is required for all entries.
	ExpiresAt time.Time
}

// Strategy is the event protocol between a cache container and an eviction
// policy. The container invokes the hooks at the corresponding lifecycle
// points and is responsible for serializing all calls: implementations are
// single-threaded-use and carry no internal synchronization.
//
// A strategy only maintains its own bookkeeping. It never reaches into the
// container's storage, and CollectExpired never removes anything by itself:
// the container decides what to evict and reports each eviction back via
// Dissociate.
type Strategy[K KeyConstraint] interface {
	// Associate is invoked when an entry is added or overwritten.
	// expiresAt may lie in the past; the entry is then immediately
	// eligible for CollectExpired. Re-associating a key replaces its
	// previous expiration time, so a key never has two live records.
	Associate(key K, expiresAt time.Time)

	// Dissociate is invoked when an entry is removed.
	// Dissociating an untracked key is a no-op.
	Dissociate(key K)

	// Touch is invoked when an entry is read.
	Touch(key K)

	// Clear is invoked when the container is emptied. It is idempotent.
	Clear()

	// IsExpired reports whether the entry for key is expired at now.
	// tracked is false if the key is not currently tracked; the container
	// should then treat the probe as "nothing to invalidate".
	// IsExpired never mutates the strategy.
	IsExpired(key K, now time.Time) (expired, tracked bool)

	// CollectExpired returns the keys whose expiration time is at or
	// before now. The returned keys are unique. The scan is read-only:
	// repeated calls without intervening Dissociate calls return the same
	// (or a grown) result.
	CollectExpired(now time.Time) []K
}

// CacheStorage is an interface for a cache storage backend.
// Implementations must be thread-safe.
type CacheStorage[K KeyConstraint, V ValueConstraint] interface {
	// Set stores a value with the given key and expiration time.
	// If the key already exists, it should overwrite the existing value.
	// It must clone the input entry before storing it.
	Set(context.Context, *CacheEntry[K, V]) error

	// SetMulti stores multiple values.
	// It must clone the input entries before storing them.
	SetMulti(context.Context, []*CacheEntry[K, V]) error

	// Get retrieves a value by its key.
	// If the key is not found or expired, it should return nil as the CacheEntry.
	// It must clone the returned entry before returning it.
	Get(context.Context, K) (*CacheEntry[K, V], error)

	// GetMulti retrieves multiple values by keys.
	// The order of the returned values matches the order of the input keys.
	// If a key is not found or expired, it returns nil for that key.
	// It must clone the returned entries before returning them.
	GetMulti(context.Context, []K) ([]*CacheEntry[K, V], error)

	// Delete removes the entry for the given key.
	// Deleting an absent key is not an error.
	Delete(context.Context, K) error

	// Clear removes all entries.
	Clear(context.Context) error
}

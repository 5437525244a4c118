package memstorage

import (
	"context"
	"sort"
	"sync"

	expiringcache "github.com/cachetools/expiring-cache"
)

type bucket[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	m  map[K]*expiringcache.CacheEntry[K, V]
	mu sync.RWMutex
}

type storage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	buckets []*bucket[K, V]
	options options[K, V]
}

// NewInMemoryStorage creates a new in-memory cache storage.
// The storage distributes keys across buckets with a hash function so
// unrelated keys do not contend on one lock.
func NewInMemoryStorage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](opts ...Option[K, V]) expiringcache.CacheStorage[K, V] {
	options := defaultOptions[K, V]()
	for _, opt := range opts {
		opt.apply(&options)
	}

	buckets := make([]*bucket[K, V], options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[K, V]{m: map[K]*expiringcache.CacheEntry[K, V]{}}
	}

	return &storage[K, V]{
		buckets: buckets,
		options: options,
	}
}

var _ expiringcache.CacheStorage[uint8, struct{}] = (*storage[uint8, struct{}])(nil)

// resolveBucket returns the bucket that corresponds to the given key.
func (s *storage[K, V]) resolveBucket(key K) *bucket[K, V] {
	index := s.options.hashKey(key) % len(s.buckets)
	if index < 0 {
		index *= -1
	}
	return s.buckets[index]
}

// resolveBuckets returns the per-key bucket indexes and the distinct bucket
// indexes for the given keys.
func (s *storage[K, V]) resolveBuckets(keys []K) (indexes map[K]int, buckets []int) {
	indexes = make(map[K]int, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for _, key := range keys {
		index := s.options.hashKey(key) % len(s.buckets)
		if index < 0 {
			index *= -1
		}
		indexes[key] = index
		if _, ok := seen[index]; !ok {
			buckets = append(buckets, index)
			seen[index] = struct{}{}
		}
	}
	return
}

func (s *storage[K, V]) Get(_ context.Context, key K) (*expiringcache.CacheEntry[K, V], error) {
	bucket := s.resolveBucket(key)
	bucket.mu.RLock()
	defer bucket.mu.RUnlock()

	if v, ok := bucket.m[key]; ok && s.options.clock.Now().Before(v.ExpiresAt) {
		return cloneCacheEntry(s.options.cloner, v), nil
	}
	return nil, nil
}

func (s *storage[K, V]) GetMulti(_ context.Context, keys []K) ([]*expiringcache.CacheEntry[K, V], error) {
	indexes, buckets := s.resolveBuckets(keys)
	if len(buckets) != 0 {
		// lock in index order to avoid lock order inversion with other multi ops
		sort.Ints(buckets)
	}
	for _, i := range buckets {
		bucket := s.buckets[i]
		bucket.mu.RLock()
		defer bucket.mu.RUnlock()
	}

	now := s.options.clock.Now()
	result := make([]*expiringcache.CacheEntry[K, V], len(keys))
	for i, key := range keys {
		bucket := s.buckets[indexes[key]]
		if v, ok := bucket.m[key]; ok && now.Before(v.ExpiresAt) {
			result[i] = cloneCacheEntry(s.options.cloner, v)
		}
	}
	return result, nil
}

func (s *storage[K, V]) Set(_ context.Context, entry *expiringcache.CacheEntry[K, V]) error {
	bucket := s.resolveBucket(entry.Key)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.m[entry.Key] = cloneCacheEntry(s.options.cloner, entry)
	return nil
}

func (s *storage[K, V]) SetMulti(_ context.Context, entries []*expiringcache.CacheEntry[K, V]) error {
	keys := make([]K, 0, len(entries))
	for _, entry := range entries {
		if entry != nil {
			keys = append(keys, entry.Key)
		}
	}

	indexes, buckets := s.resolveBuckets(keys)
	if len(buckets) != 0 {
		sort.Ints(buckets)
	}
	for _, index := range buckets {
		bucket := s.buckets[index]
		bucket.mu.Lock()
		defer bucket.mu.Unlock()
	}

	for _, e := range entries {
		if e != nil {
			bucket := s.buckets[indexes[e.Key]]
			bucket.m[e.Key] = cloneCacheEntry(s.options.cloner, e)
		}
	}
	return nil
}

func (s *storage[K, V]) Delete(_ context.Context, key K) error {
	bucket := s.resolveBucket(key)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	delete(bucket.m, key)
	return nil
}

func (s *storage[K, V]) Clear(_ context.Context) error {
	for _, bucket := range s.buckets {
		bucket.mu.Lock()
		clear(bucket.m)
		bucket.mu.Unlock()
	}
	return nil
}

func cloneCacheEntry[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](cloner expiringcache.ValueCloner[V], v *expiringcache.CacheEntry[K, V]) *expiringcache.CacheEntry[K, V] {
	return &expiringcache.CacheEntry[K, V]{
		Entry: expiringcache.Entry[K, V]{
			Key:   v.Key,
			Value: cloner.CloneValue(v.Value),
		},
		ExpiresAt: v.ExpiresAt,
	}
}

package storage

import (
	"context"

	expiringcache "github.com/cachetools/expiring-cache"
)

var _ expiringcache.CacheStorage[uint8, struct{}] = (*SilentErrorStorage[uint8, struct{}])(nil)

// SilentErrorStorage is a decorator for an expiringcache.CacheStorage that silently handles
// errors during operations. Instead of propagating the error, it calls the provided OnError function.
// Reads that fail behave like misses; writes that fail are dropped.
type SilentErrorStorage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	// Storage is the underlying storage that this decorator wraps.
	Storage expiringcache.CacheStorage[K, V]

	// OnError is a function that is called when an error occurs during an operation.
	// The error is passed to the function as an argument.
	OnError func(error)
}

// Get retrieves the value associated with the given key from the underlying storage.
// If an error occurs, it is passed to the OnError handler and the method reports a miss.
func (s *SilentErrorStorage[K, V]) Get(ctx context.Context, key K) (*expiringcache.CacheEntry[K, V], error) {
	entry, err := s.Storage.Get(ctx, key)
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return nil, nil
	}
	return entry, nil
}

// GetMulti retrieves multiple entries from the underlying storage.
// If an error occurs, it is passed to the OnError handler and every key reports a miss.
func (s *SilentErrorStorage[K, V]) GetMulti(ctx context.Context, keys []K) ([]*expiringcache.CacheEntry[K, V], error) {
	entries, err := s.Storage.GetMulti(ctx, keys)
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return make([]*expiringcache.CacheEntry[K, V], len(keys)), nil
	}
	return entries, nil
}

// Set stores the given entry in the underlying storage.
// If an error occurs, it is passed to the OnError handler and discarded.
func (s *SilentErrorStorage[K, V]) Set(ctx context.Context, entry *expiringcache.CacheEntry[K, V]) error {
	if err := s.Storage.Set(ctx, entry); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

// SetMulti stores multiple cache entries in the underlying storage.
// If an error occurs, it is passed to the OnError handler and discarded.
func (s *SilentErrorStorage[K, V]) SetMulti(ctx context.Context, entries []*expiringcache.CacheEntry[K, V]) error {
	if err := s.Storage.SetMulti(ctx, entries); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

// Delete removes the entry for the given key from the underlying storage.
// If an error occurs, it is passed to the OnError handler and discarded.
func (s *SilentErrorStorage[K, V]) Delete(ctx context.Context, key K) error {
	if err := s.Storage.Delete(ctx, key); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

// Clear removes all entries from the underlying storage.
// If an error occurs, it is passed to the OnError handler and discarded.
func (s *SilentErrorStorage[K, V]) Clear(ctx context.Context) error {
	if err := s.Storage.Clear(ctx); err != nil && s.OnError != nil {
		s.OnError(err)
	}
	return nil
}

var _ expiringcache.CacheStorage[uint8, struct{}] = (*FunctionsStorage[uint8, struct{}])(nil)

// FunctionsStorage is an expiringcache.CacheStorage implementation that uses functions to perform the storage operations.
type FunctionsStorage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	// SetFunc stores a value with the given key and expiration time.
	SetFunc func(context.Context, *expiringcache.CacheEntry[K, V]) error

	// SetMultiFunc stores multiple values.
	SetMultiFunc func(context.Context, []*expiringcache.CacheEntry[K, V]) error

	// GetFunc retrieves a value by its key.
	GetFunc func(context.Context, K) (*expiringcache.CacheEntry[K, V], error)

	// GetMultiFunc retrieves multiple values by keys.
	// The order of the returned values matches the order of the input keys.
	GetMultiFunc func(context.Context, []K) ([]*expiringcache.CacheEntry[K, V], error)

	// DeleteFunc removes the entry for the given key.
	DeleteFunc func(context.Context, K) error

	// ClearFunc removes all entries.
	ClearFunc func(context.Context) error
}

// Set calls the SetFunc function to store the given entry.
func (s *FunctionsStorage[K, V]) Set(ctx context.Context, entry *expiringcache.CacheEntry[K, V]) error {
	return s.SetFunc(ctx, entry)
}

// SetMulti calls the SetMultiFunc function to store multiple entries.
func (s *FunctionsStorage[K, V]) SetMulti(ctx context.Context, entries []*expiringcache.CacheEntry[K, V]) error {
	return s.SetMultiFunc(ctx, entries)
}

// Get calls the GetFunc function to retrieve the value associated with the given key.
func (s *FunctionsStorage[K, V]) Get(ctx context.Context, key K) (*expiringcache.CacheEntry[K, V], error) {
	return s.GetFunc(ctx, key)
}

// GetMulti calls the GetMultiFunc function to retrieve multiple entries.
func (s *FunctionsStorage[K, V]) GetMulti(ctx context.Context, keys []K) ([]*expiringcache.CacheEntry[K, V], error) {
	return s.GetMultiFunc(ctx, keys)
}

// Delete calls the DeleteFunc function to remove the entry for the given key.
func (s *FunctionsStorage[K, V]) Delete(ctx context.Context, key K) error {
	return s.DeleteFunc(ctx, key)
}

// Clear calls the ClearFunc function to remove all entries.
func (s *FunctionsStorage[K, V]) Clear(ctx context.Context) error {
	return s.ClearFunc(ctx)
}

package memstorage

import (
	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/internal/keyhash"
)

// DefaultBucketsSize is the default number of buckets in the cache.
var DefaultBucketsSize = 256

// Option is the interface for the options of the in-memory cache storage.
type Option[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] interface {
	apply(*options[K, V])
}

type optionFunc[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] func(*options[K, V])

func (f optionFunc[K, V]) apply(o *options[K, V]) {
	f(o)
}

// WithKeyHash sets the key hash function to the storage.
func WithKeyHash[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](f func(K) int) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.hashKey = func(key any) int {
			return f(key.(K))
		}
	})
}

// WithBucketsSize sets the number of buckets in the cache.
// The number of buckets must be a natural number.
func WithBucketsSize[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](bucketsSize int) Option[K, V] {
	if bucketsSize <= 0 {
		panic("bucketsSize must be natural number")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.bucketsSize = bucketsSize
	})
}

// WithClock sets the clock to the storage.
func WithClock[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](clock expiringcache.Clock) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.clock = clock
	})
}

// WithCloner sets the value cloner to the storage.
func WithCloner[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](cloner expiringcache.ValueCloner[V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.cloner = cloner
	})
}

type options[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	hashKey     func(any) int
	bucketsSize int
	clock       expiringcache.Clock
	cloner      expiringcache.ValueCloner[V]
}

func defaultOptions[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint]() options[K, V] {
	return options[K, V]{
		hashKey:     keyhash.GetOrCreateKeyHash[K](),
		bucketsSize: DefaultBucketsSize,
		clock:       expiringcache.SystemClock,
		cloner:      expiringcache.DefaultValueCloner[V](),
	}
}

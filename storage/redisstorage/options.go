package redisstorage

import (
	expiringcache "github.com/cachetools/expiring-cache"
)

// DefaultNamespace is the default key prefix for stored entries.
const DefaultNamespace = "expiringcache"

// Option is the interface for the options of the Redis cache storage.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithNamespace sets the key prefix of the storage.
// Storages with distinct namespaces can share a Redis database.
func WithNamespace(namespace string) Option {
	return optionFunc(func(o *options) {
		o.namespace = namespace
	})
}

// WithClock sets the clock used to filter entries past their deadline on reads.
func WithClock(clock expiringcache.Clock) Option {
	return optionFunc(func(o *options) {
		o.clock = clock
	})
}

type options struct {
	namespace string
	clock     expiringcache.Clock
}

func defaultOptions() options {
	return options{
		namespace: DefaultNamespace,
		clock:     expiringcache.SystemClock,
	}
}

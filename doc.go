// Package expiringcache provides a generic cache with per-entry absolute
// expiration times.
//
// Unlike a cache-wide TTL, every entry carries its own invalidation
// timestamp, supplied by the cached value through the Expirable capability.
// The package is split along three contracts:
//
//   - CacheStorage holds the key-value data (see storage/memstorage and
//     storage/redisstorage).
//   - Strategy is the event protocol an eviction policy implements (see
//     uniqueexpire for the per-entry expiration policy).
//   - Cache is the container that owns both and drives the protocol.
//
// The intervalsweeper package drives periodic eviction sweeps for callers
// that want background cleanup.
package expiringcache

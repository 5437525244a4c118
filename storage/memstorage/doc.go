// Package memstorage provides an in-memory implementation of the
// expiringcache.CacheStorage interface.
//
// Entries are distributed across hash-selected buckets so that unrelated keys
// do not contend on a single lock. Key hashing, bucket count, clock, and
// value cloning are all configurable through options.
//
// Reads filter out entries whose deadline has passed according to the
// configured clock; the boundary is inclusive, so an entry is gone at exactly
// its expiration time.
package memstorage

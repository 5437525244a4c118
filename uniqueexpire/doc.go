// Package uniqueexpire implements time-based expiration with a per-entry
// expiration time. In contrast to a cache-wide TTL, every entry carries its
// own absolute deadline, supplied by the value when it enters the cache.
//
// The strategy keeps two coupled views of the same records: a key index for
// constant-time lookup, and a time-ordered index that makes the eviction
// scan proportional to the number of expired entries. A key holds at
// most one live record at any time: re-associating a key replaces its
// previous expiration time instead of adding a second record.
//
// The strategy is single-threaded-use. The owning cache container must
// serialize all calls into it.
package uniqueexpire

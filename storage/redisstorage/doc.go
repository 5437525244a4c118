// Package redisstorage provides a Redis-backed implementation of the
// expiringcache.CacheStorage interface.
//
// Entries are encoded with msgpack and stored under a configurable namespace
// prefix. The entry's absolute deadline is mirrored to Redis via PEXPIREAT,
// so the server drops entries on its own; reads additionally filter by the
// configured clock to keep the inclusive expiration boundary exact.
//
// Multi operations are pipelined. Clear relies on a per-namespace key
// tracker set, so it only removes keys written through this storage.
package redisstorage

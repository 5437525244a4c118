// Package storage provides adapters and shared errors for cache storage
// backends.
//
// The concrete backends live in subpackages:
//
// - memstorage: hash-sharded in-memory storage
// - redisstorage: Redis-backed storage
//
// The storagetest subpackage holds a generic conformance suite that backend
// tests run against their implementation.
package storage

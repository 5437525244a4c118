package redisstorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/storage"
)

// envelope is the msgpack wire form of a cache entry.
// The expiration time is carried as unix nanoseconds so the deadline
// survives the roundtrip exactly.
type envelope[V expiringcache.ValueConstraint] struct {
	Value     V     `msgpack:"v"`
	ExpiresAt int64 `msgpack:"e"`
}

type redisStorage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	client  redis.UniversalClient
	options options
}

// NewRedisStorage creates a Redis-backed cache storage on top of the given client.
// Values must be msgpack-serializable; the encode/decode roundtrip doubles as
// the cloning step required by the CacheStorage contract.
func NewRedisStorage[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](client redis.UniversalClient, opts ...Option) expiringcache.CacheStorage[K, V] {
	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}

	return &redisStorage[K, V]{
		client:  client,
		options: options,
	}
}

var _ expiringcache.CacheStorage[uint8, struct{}] = (*redisStorage[uint8, struct{}])(nil)

// entryKey returns the namespaced Redis key for a cache key.
func (s *redisStorage[K, V]) entryKey(key K) string {
	return s.options.namespace + ":" + fmt.Sprint(key)
}

// trackerKey returns the Redis set that records every key written through
// this storage. Clear uses it to avoid scanning the whole keyspace.
func (s *redisStorage[K, V]) trackerKey() string {
	return s.options.namespace + ":__keys__"
}

func (s *redisStorage[K, V]) Set(ctx context.Context, entry *expiringcache.CacheEntry[K, V]) error {
	b, err := msgpack.Marshal(envelope[V]{
		Value:     entry.Value,
		ExpiresAt: entry.ExpiresAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSet, err)
	}

	rkey := s.entryKey(entry.Key)
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rkey, b, 0)
		pipe.PExpireAt(ctx, rkey, entry.ExpiresAt)
		pipe.SAdd(ctx, s.trackerKey(), rkey)
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSet, err)
	}
	return nil
}

func (s *redisStorage[K, V]) SetMulti(ctx context.Context, entries []*expiringcache.CacheEntry[K, V]) error {
	encoded := make(map[string][]byte, len(entries))
	deadlines := make(map[string]time.Time, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		b, err := msgpack.Marshal(envelope[V]{
			Value:     entry.Value,
			ExpiresAt: entry.ExpiresAt.UnixNano(),
		})
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSet, err)
		}
		rkey := s.entryKey(entry.Key)
		encoded[rkey] = b
		deadlines[rkey] = entry.ExpiresAt
	}
	if len(encoded) == 0 {
		return nil
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for rkey, b := range encoded {
			pipe.Set(ctx, rkey, b, 0)
			pipe.PExpireAt(ctx, rkey, deadlines[rkey])
			pipe.SAdd(ctx, s.trackerKey(), rkey)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSet, err)
	}
	return nil
}

func (s *redisStorage[K, V]) Get(ctx context.Context, key K) (*expiringcache.CacheEntry[K, V], error) {
	b, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrGet, err)
	}
	return s.decodeEntry(key, b, s.options.clock.Now())
}

func (s *redisStorage[K, V]) GetMulti(ctx context.Context, keys []K) ([]*expiringcache.CacheEntry[K, V], error) {
	rkeys := make([]string, len(keys))
	for i, key := range keys {
		rkeys[i] = s.entryKey(key)
	}

	values, err := s.client.MGet(ctx, rkeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrGet, err)
	}

	now := s.options.clock.Now()
	result := make([]*expiringcache.CacheEntry[K, V], len(keys))
	for i, value := range values {
		if value == nil {
			continue
		}
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected value type %T", storage.ErrGet, value)
		}
		entry, err := s.decodeEntry(keys[i], []byte(raw), now)
		if err != nil {
			return nil, err
		}
		result[i] = entry
	}
	return result, nil
}

func (s *redisStorage[K, V]) decodeEntry(key K, b []byte, now time.Time) (*expiringcache.CacheEntry[K, V], error) {
	var env envelope[V]
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrGet, err)
	}

	expiresAt := time.Unix(0, env.ExpiresAt)
	if !now.Before(expiresAt) {
		// the server has not reaped the key yet, treat it as gone
		return nil, nil
	}

	return &expiringcache.CacheEntry[K, V]{
		Entry:     expiringcache.Entry[K, V]{Key: key, Value: env.Value},
		ExpiresAt: expiresAt,
	}, nil
}

func (s *redisStorage[K, V]) Delete(ctx context.Context, key K) error {
	rkey := s.entryKey(key)
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rkey)
		pipe.SRem(ctx, s.trackerKey(), rkey)
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrDelete, err)
	}
	return nil
}

func (s *redisStorage[K, V]) Clear(ctx context.Context) error {
	rkeys, err := s.client.SMembers(ctx, s.trackerKey()).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrClear, err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(rkeys) != 0 {
			pipe.Del(ctx, rkeys...)
		}
		pipe.Del(ctx, s.trackerKey())
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrClear, err)
	}
	return nil
}

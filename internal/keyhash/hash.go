package keyhash

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-reflect"

	expiringcache "github.com/cachetools/expiring-cache"
)

var (
	// defaultKeyHashMapMutex guards defaultKeyHashMap.
	defaultKeyHashMapMutex = sync.RWMutex{}

	// defaultKeyHashMap caches hash functions per key type.
	defaultKeyHashMap = map[string]func(any) int{}
)

// GetOrCreateKeyHash returns a hash function for the given key type.
// Hash functions are cached per type, so repeated calls are cheap.
func GetOrCreateKeyHash[K expiringcache.KeyConstraint]() func(any) int {
	var zero K
	return getOrCreateKeyHashAny(zero)
}

func getOrCreateKeyHashAny(t any) func(any) int {
	name := reflect.TypeOf(t).String()

	defaultKeyHashMapMutex.RLock()
	if f, ok := defaultKeyHashMap[name]; ok {
		defaultKeyHashMapMutex.RUnlock()
		return f
	}

	defaultKeyHashMapMutex.RUnlock()
	defaultKeyHashMapMutex.Lock()
	defer defaultKeyHashMapMutex.Unlock()
	if f, ok := defaultKeyHashMap[name]; ok {
		return f
	}

	f := createKeyHashAny(t)
	defaultKeyHashMap[name] = f
	return f
}

// createKeyHashAny creates a hash function for the given type.
// Keys are encoded to a fixed-width big-endian form and hashed with xxHash.
func createKeyHashAny(t any) func(any) int {
	switch t.(type) {
	case int:
		return func(v any) int { return hashUint64(uint64(v.(int))) }
	case int8:
		return func(v any) int { return hashUint64(uint64(v.(int8))) }
	case int16:
		return func(v any) int { return hashUint64(uint64(v.(int16))) }
	case int32:
		return func(v any) int { return hashUint64(uint64(v.(int32))) }
	case int64:
		return func(v any) int { return hashUint64(uint64(v.(int64))) }
	case uint:
		return func(v any) int { return hashUint64(uint64(v.(uint))) }
	case uint8:
		return func(v any) int { return hashUint64(uint64(v.(uint8))) }
	case uint16:
		return func(v any) int { return hashUint64(uint64(v.(uint16))) }
	case uint32:
		return func(v any) int { return hashUint64(uint64(v.(uint32))) }
	case uint64:
		return func(v any) int { return hashUint64(v.(uint64)) }
	case uintptr:
		panic("uintptr cannot be hash key")
	case float32:
		return func(v any) int { return hashUint64(uint64(math.Float32bits(v.(float32)))) }
	case float64:
		return func(v any) int { return hashUint64(math.Float64bits(v.(float64))) }
	case string:
		return func(v any) int {
			return int(xxhash.Sum64String(v.(string)))
		}
	default:
		panic(fmt.Sprintf("unknown type: %T", t))
	}
}

func hashUint64(v uint64) int {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return int(xxhash.Sum64(b[:]))
}

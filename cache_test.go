package expiringcache_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/storage"
	"github.com/cachetools/expiring-cache/storage/memstorage"
	"github.com/cachetools/expiring-cache/uniqueexpire"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type testValue = expiringcache.WithExpiration[string]

// newMapStorage returns a function-backed storage over a plain map.
// Unlike memstorage it performs no expiry filtering of its own, so cache
// tests observe the strategy's decisions directly.
func newMapStorage() (expiringcache.CacheStorage[string, testValue], map[string]*expiringcache.CacheEntry[string, testValue]) {
	m := map[string]*expiringcache.CacheEntry[string, testValue]{}
	return &storage.FunctionsStorage[string, testValue]{
		SetFunc: func(_ context.Context, entry *expiringcache.CacheEntry[string, testValue]) error {
			m[entry.Key] = entry
			return nil
		},
		SetMultiFunc: func(_ context.Context, entries []*expiringcache.CacheEntry[string, testValue]) error {
			for _, entry := range entries {
				if entry != nil {
					m[entry.Key] = entry
				}
			}
			return nil
		},
		GetFunc: func(_ context.Context, key string) (*expiringcache.CacheEntry[string, testValue], error) {
			return m[key], nil
		},
		GetMultiFunc: func(_ context.Context, keys []string) ([]*expiringcache.CacheEntry[string, testValue], error) {
			entries := make([]*expiringcache.CacheEntry[string, testValue], len(keys))
			for i, key := range keys {
				entries[i] = m[key]
			}
			return entries, nil
		},
		DeleteFunc: func(_ context.Context, key string) error {
			delete(m, key)
			return nil
		},
		ClearFunc: func(_ context.Context) error {
			clear(m)
			return nil
		},
	}, m
}

func TestCache_SetAndGet(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, _ := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	value := testValue{Value: "hello", ExpiresAt: base.Add(time.Hour)}
	if err := cache.Set(t.Context(), "greeting", value); err != nil {
		t.Fatal(err)
	}

	got, ok, err := cache.Get(t.Context(), "greeting")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("entry should exist")
	}
	if df := cmp.Diff(value, got); df != "" {
		t.Errorf("value diff=%s", df)
	}

	_, ok, err = cache.Get(t.Context(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing key should be a miss")
	}
}

func TestCache_GetRemovesExpiredEntry(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, m := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	if err := cache.Set(t.Context(), "a", testValue{Value: "1", ExpiresAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}

	// valid before the deadline
	if _, ok, err := cache.Get(t.Context(), "a"); err != nil || !ok {
		t.Fatalf("Get(a) = (_, %v, %v), want a hit", ok, err)
	}

	// the boundary is inclusive: a miss exactly at the deadline
	clock.now = base.Add(time.Minute)
	if _, ok, err := cache.Get(t.Context(), "a"); err != nil || ok {
		t.Fatalf("Get(a) = (_, %v, %v), want a miss", ok, err)
	}

	// the expired entry is dropped from storage and strategy alike
	if _, exists := m["a"]; exists {
		t.Error("expired entry should be removed from storage")
	}
	if got := strategy.Len(); got != 0 {
		t.Errorf("strategy.Len() = %d, want 0", got)
	}
}

func TestCache_OverwriteReplacesDeadline(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, _ := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	if err := cache.Set(t.Context(), "a", testValue{Value: "1", ExpiresAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(t.Context(), "a", testValue{Value: "2", ExpiresAt: base.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	clock.now = base.Add(30 * time.Minute)
	got, ok, err := cache.Get(t.Context(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("overwritten entry should use the new deadline")
	}
	if got.Value != "2" {
		t.Errorf("value = %q, want %q", got.Value, "2")
	}
	if got := strategy.Len(); got != 1 {
		t.Errorf("strategy.Len() = %d, want 1", got)
	}
}

func TestCache_Has(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, m := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	if err := cache.Set(t.Context(), "a", testValue{Value: "1", ExpiresAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}

	if ok, err := cache.Has(t.Context(), "a"); err != nil || !ok {
		t.Errorf("Has(a) = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := cache.Has(t.Context(), "missing"); err != nil || ok {
		t.Errorf("Has(missing) = (%v, %v), want (false, nil)", ok, err)
	}

	// unlike Get, Has never removes the expired entry
	clock.now = base.Add(time.Minute)
	if ok, err := cache.Has(t.Context(), "a"); err != nil || ok {
		t.Errorf("Has(a) = (%v, %v), want (false, nil)", ok, err)
	}
	if _, exists := m["a"]; !exists {
		t.Error("Has should not remove the expired entry")
	}
	if got := strategy.Len(); got != 1 {
		t.Errorf("strategy.Len() = %d, want 1", got)
	}
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, _ := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	if err := cache.Set(t.Context(), "a", testValue{Value: "1", ExpiresAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Delete(t.Context(), "a"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := cache.Get(t.Context(), "a"); ok {
		t.Error("deleted entry should be a miss")
	}
	if got := strategy.Len(); got != 0 {
		t.Errorf("strategy.Len() = %d, want 0", got)
	}

	// deleting an absent key is not an error
	if err := cache.Delete(t.Context(), "a"); err != nil {
		t.Fatal(err)
	}
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, m := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(t.Context(), key, testValue{Value: key, ExpiresAt: base.Add(time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	if err := cache.Clear(t.Context()); err != nil {
		t.Fatal(err)
	}

	if len(m) != 0 {
		t.Errorf("storage should be empty, got %d entries", len(m))
	}
	if got := strategy.Len(); got != 0 {
		t.Errorf("strategy.Len() = %d, want 0", got)
	}

	// clearing an empty cache is a no-op
	if err := cache.Clear(t.Context()); err != nil {
		t.Fatal(err)
	}
}

func TestCache_EvictExpired(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store, m := newMapStorage()
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	deadlines := map[string]time.Duration{
		"a": 10 * time.Second,
		"b": 20 * time.Second,
		"c": 5 * time.Second,
	}
	for key, offset := range deadlines {
		if err := cache.Set(t.Context(), key, testValue{Value: key, ExpiresAt: base.Add(offset)}); err != nil {
			t.Fatal(err)
		}
	}

	// nothing expired yet
	evicted, err := cache.EvictExpired(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 0 {
		t.Errorf("EvictExpired() = %v, want empty", evicted)
	}

	// c expired earlier, a exactly at the boundary, b not yet
	clock.now = base.Add(10 * time.Second)
	evicted, err = cache.EvictExpired(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(evicted)
	if df := cmp.Diff([]string{"a", "c"}, evicted); df != "" {
		t.Errorf("evicted diff=%s", df)
	}

	if _, exists := m["b"]; !exists {
		t.Error("b should survive the sweep")
	}
	if len(m) != 1 {
		t.Errorf("storage should hold 1 entry, got %d", len(m))
	}
	if got := strategy.Len(); got != 1 {
		t.Errorf("strategy.Len() = %d, want 1", got)
	}

	// a second sweep has nothing left to do
	evicted, err = cache.EvictExpired(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 0 {
		t.Errorf("EvictExpired() = %v, want empty", evicted)
	}
}

func TestCache_WithInMemoryStorage(t *testing.T) {
	t.Parallel()

	base := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}

	store := memstorage.NewInMemoryStorage[string, testValue](
		memstorage.WithClock[string, testValue](clock),
	)
	strategy := uniqueexpire.New[string]()
	cache := expiringcache.NewCache(store, strategy, expiringcache.WithClock[string, testValue](clock))

	if err := cache.Set(t.Context(), "a", testValue{Value: "1", ExpiresAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := cache.Get(t.Context(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.Value != "1" {
		t.Fatalf("Get(a) = (%+v, %v), want a hit", got, ok)
	}

	clock.now = base.Add(time.Minute)
	if _, ok, _ := cache.Get(t.Context(), "a"); ok {
		t.Error("entry should be expired")
	}

	evicted, err := cache.EvictExpired(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 0 && strategy.Len() != 0 {
		t.Errorf("sweep after expired get left %d tracked keys", strategy.Len())
	}
}

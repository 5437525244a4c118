// storagetest package provides generic test cases for cache storage implementations.
package storagetest

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	expiringcache "github.com/cachetools/expiring-cache"
)

// FixedClock is a clock that returns a settable fixed time.
type FixedClock struct {
	Time time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.Time
}

// BenchmarkSet benchmarks the Set method of the cache storage.
func BenchmarkSet[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](b *testing.B, storage expiringcache.CacheStorage[K, V], keys []K) {
	var zero V
	expiresAt := time.Now().Add(time.Hour)
	ctx := b.Context()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Set(ctx, &expiringcache.CacheEntry[K, V]{
			Entry:     expiringcache.Entry[K, V]{Key: keys[i%len(keys)], Value: zero},
			ExpiresAt: expiresAt,
		})
	}
}

type TestClonerStruct struct {
	value int8
}

func (s *TestClonerStruct) Clone() *TestClonerStruct {
	return &TestClonerStruct{value: s.value}
}

// TestCloneStruct tests the cloning behavior of the cache storage.
func TestCloneStruct(t *testing.T, provider func() (expiringcache.CacheStorage[uint8, *TestClonerStruct], func())) {
	t.Run("CloneStruct", func(t *testing.T) {
		t.Parallel()

		storage, release := provider()
		defer release()

		original := &expiringcache.CacheEntry[uint8, *TestClonerStruct]{
			Entry: expiringcache.Entry[uint8, *TestClonerStruct]{
				Key:   1,
				Value: &TestClonerStruct{value: 1},
			},
			ExpiresAt: time.Now().Add(time.Hour),
		}
		if err := storage.Set(t.Context(), original); err != nil {
			t.Fatal(err)
		}

		got, err := storage.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}

		if original == got || original.Value == got.Value {
			t.Error("struct must be cloned, but got same that")
		}
		if df := cmp.Diff(original.Value, got.Value, cmp.AllowUnexported(TestClonerStruct{})); df != "" {
			t.Errorf("struct diff=%s", df)
		}

		before := got
		got, err = storage.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if before == got || before.Value == got.Value {
			t.Error("struct must be cloned, but got same that")
		}
		if df := cmp.Diff(before.Value, got.Value, cmp.AllowUnexported(TestClonerStruct{})); df != "" {
			t.Errorf("struct diff=%s", df)
		}
	})
}

// TestConsistency tests concurrent Set/Get and SetMulti/GetMulti roundtrips.
func TestConsistency(t *testing.T, provider func() (expiringcache.CacheStorage[uint8, int8], func())) {
	t.Run("Consistency", func(t *testing.T) {
		t.Parallel()

		t.Run("SetAndGet", func(t *testing.T) {
			t.Parallel()

			storage, release := provider()
			defer release()

			expiresAt := time.Now().Add(time.Hour)
			patterns := []expiringcache.Entry[uint8, int8]{
				{Key: 0, Value: 1},
				{Key: 1, Value: 2},
				{Key: 2, Value: 3},
				{Key: 3, Value: 4},
				{Key: 4, Value: 5},
				{Key: 251, Value: 124},
				{Key: 252, Value: 125},
				{Key: 253, Value: 126},
				{Key: 254, Value: 127},
				{Key: 255, Value: -128},
			}
			rand.Shuffle(len(patterns), func(i, j int) {
				patterns[i], patterns[j] = patterns[j], patterns[i]
			})

			var eg errgroup.Group
			for _, pattern := range patterns {
				eg.Go(func() error {
					entry, err := storage.Get(t.Context(), pattern.Key)
					if err != nil {
						return err
					} else if entry != nil {
						return fmt.Errorf("unexpected exists value for key %d", pattern.Key)
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			eg = errgroup.Group{}
			for _, pattern := range patterns {
				eg.Go(func() error {
					return storage.Set(t.Context(), &expiringcache.CacheEntry[uint8, int8]{
						Entry:     pattern,
						ExpiresAt: expiresAt,
					})
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			eg = errgroup.Group{}
			entries := make([]*expiringcache.CacheEntry[uint8, int8], len(patterns))
			for i, pattern := range patterns {
				eg.Go(func() error {
					entry, err := storage.Get(t.Context(), pattern.Key)
					if err != nil {
						return err
					}
					entries[i] = entry
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			for i, pattern := range patterns {
				if entries[i] == nil {
					t.Errorf("pattern[%d] key=%d entry is missing", i, pattern.Key)
					continue
				}
				if df := cmp.Diff(pattern, entries[i].Entry); df != "" {
					t.Errorf("pattern[%d] key=%d entry diff=%s", i, pattern.Key, df)
				}
			}
		})

		t.Run("SetMultiAndGetMulti", func(t *testing.T) {
			t.Parallel()

			storage, release := provider()
			defer release()

			expiresAt := time.Now().Add(time.Hour)
			batches := [][]*expiringcache.CacheEntry[uint8, int8]{
				{
					{Entry: expiringcache.Entry[uint8, int8]{Key: 0, Value: 1}, ExpiresAt: expiresAt},
				},
				{
					{Entry: expiringcache.Entry[uint8, int8]{Key: 1, Value: 2}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 2, Value: 3}, ExpiresAt: expiresAt},
				},
				{
					{Entry: expiringcache.Entry[uint8, int8]{Key: 4, Value: 5}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 5, Value: 6}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 6, Value: 7}, ExpiresAt: expiresAt},
				},
				{
					{Entry: expiringcache.Entry[uint8, int8]{Key: 251, Value: 124}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 252, Value: 125}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 253, Value: 126}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 254, Value: 127}, ExpiresAt: expiresAt},
					{Entry: expiringcache.Entry[uint8, int8]{Key: 255, Value: -128}, ExpiresAt: expiresAt},
				},
			}
			rand.Shuffle(len(batches), func(i, j int) {
				batches[i], batches[j] = batches[j], batches[i]
			})

			var eg errgroup.Group
			for _, batch := range batches {
				eg.Go(func() error {
					return storage.SetMulti(t.Context(), batch)
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			eg = errgroup.Group{}
			results := make([][]*expiringcache.CacheEntry[uint8, int8], len(batches))
			for i, batch := range batches {
				keys := make([]uint8, len(batch))
				for j, entry := range batch {
					keys[j] = entry.Key
				}
				eg.Go(func() error {
					r, err := storage.GetMulti(t.Context(), keys)
					if err != nil {
						return err
					}
					results[i] = r
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}

			for i, batch := range batches {
				if df := cmp.Diff(batch, results[i]); df != "" {
					t.Errorf("batch[%d] entry diff=%s", i, df)
				}
			}
		})
	})
}

// TestDeletion tests Delete and Clear.
func TestDeletion(t *testing.T, provider func() (expiringcache.CacheStorage[uint8, int8], func())) {
	t.Run("Deletion", func(t *testing.T) {
		t.Parallel()

		t.Run("Delete", func(t *testing.T) {
			t.Parallel()

			storage, release := provider()
			defer release()

			expiresAt := time.Now().Add(time.Hour)
			if err := storage.SetMulti(t.Context(), []*expiringcache.CacheEntry[uint8, int8]{
				{Entry: expiringcache.Entry[uint8, int8]{Key: 1, Value: 1}, ExpiresAt: expiresAt},
				{Entry: expiringcache.Entry[uint8, int8]{Key: 2, Value: 2}, ExpiresAt: expiresAt},
			}); err != nil {
				t.Fatal(err)
			}

			if err := storage.Delete(t.Context(), 1); err != nil {
				t.Fatal(err)
			}

			entry, err := storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if entry != nil {
				t.Error("deleted entry should not exist")
			}

			entry, err = storage.Get(t.Context(), 2)
			if err != nil {
				t.Fatal(err)
			}
			if entry == nil {
				t.Error("remaining entry should exist")
			}

			// deleting an absent key is not an error
			if err := storage.Delete(t.Context(), 99); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("Clear", func(t *testing.T) {
			t.Parallel()

			storage, release := provider()
			defer release()

			expiresAt := time.Now().Add(time.Hour)
			keys := []uint8{1, 2, 3}
			if err := storage.SetMulti(t.Context(), []*expiringcache.CacheEntry[uint8, int8]{
				{Entry: expiringcache.Entry[uint8, int8]{Key: 1, Value: 1}, ExpiresAt: expiresAt},
				{Entry: expiringcache.Entry[uint8, int8]{Key: 2, Value: 2}, ExpiresAt: expiresAt},
				{Entry: expiringcache.Entry[uint8, int8]{Key: 3, Value: 3}, ExpiresAt: expiresAt},
			}); err != nil {
				t.Fatal(err)
			}

			if err := storage.Clear(t.Context()); err != nil {
				t.Fatal(err)
			}

			entries, err := storage.GetMulti(t.Context(), keys)
			if err != nil {
				t.Fatal(err)
			}
			for i, entry := range entries {
				if entry != nil {
					t.Errorf("entry[%d] should not exist after clear", i)
				}
			}

			// clearing an empty storage is a no-op
			if err := storage.Clear(t.Context()); err != nil {
				t.Fatal(err)
			}
		})
	})
}

// TestExpiration tests the expiration boundary of reads with a fixed clock.
func TestExpiration(t *testing.T, provider func(expiringcache.Clock) (expiringcache.CacheStorage[uint8, int8], func())) {
	t.Run("Expiration", func(t *testing.T) {
		t.Parallel()

		t.Run("SetAndGet", func(t *testing.T) {
			t.Parallel()

			base := time.Now()
			clock := &FixedClock{Time: base}
			storage, release := provider(clock)
			defer release()

			cacheEntry, err := storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if cacheEntry != nil {
				t.Error("should not exist")
			}

			expiresAt := base.Add(time.Hour)
			if err := storage.Set(t.Context(), &expiringcache.CacheEntry[uint8, int8]{
				Entry:     expiringcache.Entry[uint8, int8]{Key: 1, Value: 1},
				ExpiresAt: expiresAt,
			}); err != nil {
				t.Fatal(err)
			}

			cacheEntry, err = storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if cacheEntry == nil {
				t.Fatal("should exist before expiration")
			}
			if df := cmp.Diff(expiringcache.Entry[uint8, int8]{Key: 1, Value: 1}, cacheEntry.Entry); df != "" {
				t.Errorf("entry diff=%s", df)
			}

			clock.Time = base.Add(time.Hour - time.Second)
			cacheEntry, err = storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if cacheEntry == nil {
				t.Error("should exist just before expiration")
			}

			clock.Time = base.Add(time.Hour)
			cacheEntry, err = storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if cacheEntry != nil {
				t.Error("should be expired at exactly expiration time")
			}

			clock.Time = base.Add(time.Hour + time.Second)
			cacheEntry, err = storage.Get(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if cacheEntry != nil {
				t.Error("should be expired after expiration time")
			}
		})

		t.Run("SetMultiAndGetMulti", func(t *testing.T) {
			t.Parallel()

			base := time.Now()
			clock := &FixedClock{Time: base}
			storage, release := provider(clock)
			defer release()

			keys := []uint8{1, 2, 3}
			expiresAt := base.Add(time.Hour)
			testEntries := []*expiringcache.CacheEntry[uint8, int8]{
				{Entry: expiringcache.Entry[uint8, int8]{Key: 1, Value: 1}, ExpiresAt: expiresAt},
				{Entry: expiringcache.Entry[uint8, int8]{Key: 2, Value: 2}, ExpiresAt: expiresAt},
				{Entry: expiringcache.Entry[uint8, int8]{Key: 3, Value: 3}, ExpiresAt: expiresAt},
			}
			if err := storage.SetMulti(t.Context(), testEntries); err != nil {
				t.Fatal(err)
			}

			entries, err := storage.GetMulti(t.Context(), keys)
			if err != nil {
				t.Fatal(err)
			}
			if df := cmp.Diff(testEntries, entries); df != "" {
				t.Errorf("entries diff=%s", df)
			}

			clock.Time = base.Add(time.Hour)
			entries, err = storage.GetMulti(t.Context(), keys)
			if err != nil {
				t.Fatal(err)
			}
			for i, entry := range entries {
				if entry != nil {
					t.Errorf("entry[%d] should be expired at exactly expiration time", i)
				}
			}
		})
	})
}

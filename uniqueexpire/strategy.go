package uniqueexpire

import (
	"container/heap"
	"time"

	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/expiration"
)

// record is one live (expiration time, key) pair. The key index maps keys to
// records and the time index orders the same records by expiration time.
// slot is the record's current position in the time index; the heap
// operations keep it up to date, so a record pointer stays a valid handle
// across unrelated inserts and removals.
type record[K expiringcache.KeyConstraint] struct {
	key       K
	expiresAt time.Time
	slot      int
}

// timeIndex is a min-heap of records ordered by expiration time ascending.
// Equal expiration times are allowed; their relative order is unspecified.
type timeIndex[K expiringcache.KeyConstraint] []*record[K]

func (t timeIndex[K]) Len() int {
	return len(t)
}

func (t timeIndex[K]) Less(i, j int) bool {
	return t[i].expiresAt.Before(t[j].expiresAt)
}

func (t timeIndex[K]) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
	t[i].slot = i
	t[j].slot = j
}

func (t *timeIndex[K]) Push(x any) {
	rec := x.(*record[K])
	rec.slot = len(*t)
	*t = append(*t, rec)
}

func (t *timeIndex[K]) Pop() any {
	old := *t
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	*t = old[:n-1]
	return rec
}

// Strategy tracks one expiration time per key and reports which keys have
// passed their deadline. It implements expiringcache.Strategy.
type Strategy[K expiringcache.KeyConstraint] struct {
	keys   map[K]*record[K]
	byTime timeIndex[K]
	policy expiration.Policy
}

var _ expiringcache.Strategy[uint8] = (*Strategy[uint8])(nil)

// New creates a new per-entry expiration strategy.
func New[K expiringcache.KeyConstraint](opts ...Option[K]) *Strategy[K] {
	s := &Strategy[K]{
		keys:   map[K]*record[K]{},
		policy: expiration.Deadline{},
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// Associate records that key is cached with the given absolute expiration
// time. An expiresAt in the past is accepted; the key is then immediately
// eligible for CollectExpired. If key is already tracked, its previous
// record is replaced so the key never has two live records.
func (s *Strategy[K]) Associate(key K, expiresAt time.Time) {
	if rec, ok := s.keys[key]; ok {
		rec.expiresAt = expiresAt
		heap.Fix(&s.byTime, rec.slot)
		return
	}

	rec := &record[K]{key: key, expiresAt: expiresAt}
	heap.Push(&s.byTime, rec)
	s.keys[key] = rec
}

// Dissociate removes the record for key from both indexes.
// Dissociating an untracked key is a no-op.
func (s *Strategy[K]) Dissociate(key K) {
	rec, ok := s.keys[key]
	if !ok {
		return
	}
	heap.Remove(&s.byTime, rec.slot)
	delete(s.keys, key)
}

// Touch is a no-op: reads never extend or alter expiration.
// This is what distinguishes the policy from a recency-based one.
func (s *Strategy[K]) Touch(key K) {
}

// Clear empties both indexes. Clearing an empty strategy is a no-op.
func (s *Strategy[K]) Clear() {
	clear(s.keys)
	s.byTime = nil
}

// IsExpired reports whether the entry for key is expired at now, without
// mutating the strategy. tracked is false if the key is not tracked, which
// the caller should treat as "nothing to invalidate" rather than "valid".
func (s *Strategy[K]) IsExpired(key K, now time.Time) (expired, tracked bool) {
	rec, ok := s.keys[key]
	if !ok {
		return false, false
	}
	return s.policy.IsExpired(now, rec.expiresAt), true
}

// CollectExpired returns the keys whose expiration time is at or before now,
// in no particular order. The returned keys are unique.
//
// The scan descends the time index and prunes every subtree whose root is
// still in the future; the heap order guarantees all records below it are
// too, so the cost is proportional to the number of expired entries. Nothing
// is removed: the caller decides what to evict and reports each removal back
// via Dissociate.
func (s *Strategy[K]) CollectExpired(now time.Time) []K {
	if len(s.byTime) == 0 || s.byTime[0].expiresAt.After(now) {
		return nil
	}

	var expired []K
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rec := s.byTime[i]
		if rec.expiresAt.After(now) {
			continue
		}
		expired = append(expired, rec.key)

		if l := 2*i + 1; l < len(s.byTime) {
			stack = append(stack, l)
		}
		if r := 2*i + 2; r < len(s.byTime) {
			stack = append(stack, r)
		}
	}
	return expired
}

// Len returns the number of tracked keys.
func (s *Strategy[K]) Len() int {
	return len(s.keys)
}

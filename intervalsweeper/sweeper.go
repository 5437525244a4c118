package intervalsweeper

import (
	"context"
	"time"

	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/internal/panicutil"
)

// Evictor is the part of a cache container the sweeper drives.
// *expiringcache.Cache implements it.
type Evictor[K expiringcache.KeyConstraint] interface {
	// EvictExpired removes every expired entry and returns the evicted keys.
	EvictExpired(context.Context) ([]K, error)
}

// IntervalSweeper is a background driver that evicts expired entries at a
// fixed interval. The expiration strategy itself carries no timers; this
// sweeper is the host-side loop that calls into it.
type IntervalSweeper[K expiringcache.KeyConstraint] struct {
	evictor           Evictor[K]
	interval          time.Duration
	onBackgroundError func(error)
}

// NewIntervalSweeper creates a new IntervalSweeper.
// Errors from background sweeps, including recovered panics from the storage
// backend, are reported to the onBackgroundError callback.
func NewIntervalSweeper[K expiringcache.KeyConstraint](evictor Evictor[K], interval time.Duration, onBackgroundError func(error)) *IntervalSweeper[K] {
	return &IntervalSweeper[K]{
		evictor:           evictor,
		interval:          interval,
		onBackgroundError: onBackgroundError,
	}
}

// LaunchBackgroundSweeper starts the background sweeper.
// The sweeper runs one sweep immediately and then one per interval until the
// context is canceled.
func (s *IntervalSweeper[K]) LaunchBackgroundSweeper(ctx context.Context) {
	go s.poll(ctx)
}

// poll sweeps at the fixed interval.
func (s *IntervalSweeper[K]) poll(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *IntervalSweeper[K]) sweep(ctx context.Context) {
	if err := panicutil.DDS(func() error {
		_, err := s.evictor.EvictExpired(ctx)
		return err
	}); err != nil {
		s.onBackgroundError(err)
	}
}

package uniqueexpire

import (
	expiringcache "github.com/cachetools/expiring-cache"
	"github.com/cachetools/expiring-cache/expiration"
)

// Option is the interface for the options of the strategy.
type Option[K expiringcache.KeyConstraint] interface {
	apply(*Strategy[K])
}

type optionFunc[K expiringcache.KeyConstraint] func(*Strategy[K])

func (f optionFunc[K]) apply(s *Strategy[K]) {
	f(s)
}

// WithExpirationPolicy sets the policy used by IsExpired.
// The default is expiration.Deadline. The policy affects validity probes
// only; CollectExpired always scans by the raw deadline, so eviction timing
// is independent of the policy.
func WithExpirationPolicy[K expiringcache.KeyConstraint](policy expiration.Policy) Option[K] {
	return optionFunc[K](func(s *Strategy[K]) {
		s.policy = policy
	})
}

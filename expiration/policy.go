package expiration

import (
	"math/rand/v2"
	"time"
)

// Policy is the interface for the expiration time checker.
// Implementations determine when cached values should be considered expired.
type Policy interface {
	// IsExpired returns true if the value is expired.
	// The now parameter represents the current time, and expiresAt is the
	// value's absolute expiration time.
	IsExpired(now, expiresAt time.Time) bool
}

// Deadline is a policy that expires a value exactly at its expiration time.
// The boundary is inclusive: a value whose expiration time equals now is
// already expired.
type Deadline struct{}

var _ Policy = Deadline{}

// IsExpired returns true if expiresAt is at or before now.
func (Deadline) IsExpired(now, expiresAt time.Time) bool {
	return !expiresAt.After(now)
}

// Never is a policy that never expires a value.
// This is useful for entries that should stay valid until explicitly removed
// or swept.
type Never struct{}

var _ Policy = Never{}

// IsExpired always returns false.
func (Never) IsExpired(now, expiresAt time.Time) bool {
	return false
}

// Early is a policy that can expire a value before its expiration time.
// Randomly treating a value as expired slightly early spreads out refreshes
// across clients and avoids synchronized reload bursts.
type Early struct {
	// Duration is how much earlier the value can expire.
	Duration time.Duration

	// Percentage is the chance (between 0 and 1) that the value expires
	// early. 0 never expires early, 1 always does.
	Percentage float64

	// Random is the random number generator to decide early expiration.
	// If not set, the default system random generator is used.
	Random *rand.Rand
}

var _ Policy = (*Early)(nil)

// IsExpired checks if the value is expired.
// With probability Percentage the deadline is moved Duration earlier,
// otherwise the check behaves like Deadline.
func (p *Early) IsExpired(now, expiresAt time.Time) bool {
	if p.randFloat64() > p.Percentage {
		return !expiresAt.After(now)
	}
	return !expiresAt.After(now.Add(p.Duration))
}

func (p *Early) randFloat64() float64 {
	if p.Random == nil {
		return rand.Float64()
	}
	return p.Random.Float64()
}

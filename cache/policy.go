package cache

import "time"

// NoExpiry requests an entry that never expires, regardless of the
// store's default TTL.
const NoExpiry time.Duration = -1

// Policy configures TTL behavior for a store.
type Policy struct {
	// DefaultTTL is the TTL applied when a caller passes 0.
	// If zero, entries never expire by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Resolved TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default TTL policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// EffectiveTTL resolves a caller-supplied TTL against the policy.
// The returned duration is the internal representation: 0 means the entry
// never expires.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	if override == NoExpiry {
		return 0
	}

	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

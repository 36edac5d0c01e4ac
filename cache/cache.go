package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore      = errors.New("cache: store is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrUnknownEntity = errors.New("cache: unknown entity type")
)

// Store is the interface for storing query results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: no operation errors; absence is a miss, not a failure.
// - Expiry: an expired entry found on read is removed as a side effect.
type Store interface {
	// Get retrieves a live value and updates its access statistics.
	// Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) (any, bool)

	// Peek retrieves a live value without touching counters or access
	// bookkeeping. Used for re-checks that are not logical lookups.
	Peek(ctx context.Context, key string) (any, bool)

	// Set inserts or replaces the entry for key. TTL=0 uses the store's
	// default; NoExpiry stores the entry without expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// Delete removes the entry if present and reports whether it existed.
	Delete(ctx context.Context, key string) bool

	// DeleteMatching removes every entry whose key contains the substring
	// and returns how many were removed.
	DeleteMatching(substring string) int

	// Clear removes all entries and resets statistics to zero.
	Clear()

	// CleanupExpired eagerly removes every expired entry and returns how
	// many were removed. Live entries are untouched.
	CleanupExpired() int

	// Stats returns a snapshot of the store's counters.
	Stats() Statistics

	// Info returns a per-entry diagnostic listing.
	Info() []EntryInfo
}

// Statistics is a snapshot of store counters. Counters are monotonic
// except that Clear resets them to zero.
type Statistics struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64

	// Size is the number of live entries at snapshot time.
	Size int

	// MemoryEstimate is an approximate byte count of stored values.
	MemoryEstimate int
}

// TotalRequests returns the number of lookups served.
func (s Statistics) TotalRequests() int64 {
	return s.Hits + s.Misses
}

// HitRate returns hits/(hits+misses), or 0 if no requests were made.
func (s Statistics) HitRate() float64 {
	total := s.TotalRequests()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// EntryInfo describes a single entry for diagnostics.
type EntryInfo struct {
	Key          string
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64

	// TTL is the entry's time-to-live; 0 means the entry never expires.
	TTL time.Duration

	// ExpiresAt is zero for entries without expiry.
	ExpiresAt time.Time

	Expired      bool
	SizeEstimate int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

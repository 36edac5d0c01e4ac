package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
//
// All mutating operations take the store's mutex; diagnostic reads return
// snapshot copies so callers never serialize under the lock.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	policy  Policy
	stats   Statistics
}

type entry struct {
	value        any
	createdAt    time.Time
	ttl          time.Duration // 0 = never expires
	accessCount  int64
	lastAccessed time.Time
}

// expired reports whether the entry's TTL has elapsed at the given time.
func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// NewMemoryStore creates a new in-memory store with the given TTL policy.
func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		policy:  policy,
	}
}

// Get retrieves a value and updates its access statistics.
// An expired entry found here is evicted and counted as a miss.
func (s *MemoryStore) Get(_ context.Context, key string) (any, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		return nil, false
	}

	if e.expired(now) {
		delete(s.entries, key)
		s.stats.Evictions++
		s.stats.Misses++
		return nil, false
	}

	e.accessCount++
	e.lastAccessed = now
	s.stats.Hits++
	return e.value, true
}

// Peek retrieves a live value without updating statistics or access
// bookkeeping. Expired entries are left for Get or CleanupExpired to evict.
func (s *MemoryStore) Peek(_ context.Context, key string) (any, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e.value, true
}

// Set inserts or replaces the entry for key. TTL=0 uses the policy default;
// NoExpiry stores the entry without expiry.
func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) {
	now := time.Now()
	resolved := s.policy.EffectiveTTL(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{
		value:        value,
		createdAt:    now,
		ttl:          resolved,
		lastAccessed: now,
	}
	s.stats.Sets++
}

// Delete removes the entry if present and reports whether it existed.
// Deleting an absent key leaves statistics untouched.
func (s *MemoryStore) Delete(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.stats.Deletes++
	return true
}

// DeleteMatching removes every entry whose key contains the substring.
// The scan is O(live entries), which stays cheap because the store only
// holds the process's working set.
func (s *MemoryStore) DeleteMatching(substring string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.Contains(key, substring) {
			delete(s.entries, key)
			removed++
		}
	}
	s.stats.Deletes += int64(removed)
	return removed
}

// Clear removes all entries and resets statistics to zero.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.stats = Statistics{}
}

// CleanupExpired eagerly removes every expired entry and returns the count.
func (s *MemoryStore) CleanupExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.stats.Evictions += int64(removed)
	return removed
}

// Stats returns a snapshot of the store's counters. Size estimation runs
// on copied value references after the lock is released.
func (s *MemoryStore) Stats() Statistics {
	s.mu.Lock()
	snapshot := s.stats
	snapshot.Size = len(s.entries)
	values := make([]any, 0, len(s.entries))
	for _, e := range s.entries {
		values = append(values, e.value)
	}
	s.mu.Unlock()

	for _, v := range values {
		snapshot.MemoryEstimate += sizeEstimate(v)
	}
	return snapshot
}

// Info returns a per-entry diagnostic listing, sorted by key.
func (s *MemoryStore) Info() []EntryInfo {
	now := time.Now()

	s.mu.Lock()
	infos := make([]EntryInfo, 0, len(s.entries))
	values := make([]any, 0, len(s.entries))
	for key, e := range s.entries {
		info := EntryInfo{
			Key:          key,
			CreatedAt:    e.createdAt,
			LastAccessed: e.lastAccessed,
			AccessCount:  e.accessCount,
			TTL:          e.ttl,
			Expired:      e.expired(now),
		}
		if e.ttl > 0 {
			info.ExpiresAt = e.createdAt.Add(e.ttl)
		}
		infos = append(infos, info)
		values = append(values, e.value)
	}
	s.mu.Unlock()

	for i := range infos {
		infos[i].SizeEstimate = sizeEstimate(values[i])
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// sizeEstimate approximates the in-memory footprint of a cached value.
// Values are opaque, so the printed form stands in for real sizing.
func sizeEstimate(v any) int {
	switch val := v.(type) {
	case string:
		return len(val)
	case []byte:
		return len(val)
	default:
		return len(fmt.Sprint(val))
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

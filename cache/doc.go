// Package cache provides the in-memory memoization layer for expensive
// transit-data queries.
//
// It provides a TTL Store with per-entry access statistics, deterministic
// key derivation, a memoizing wrapper for arbitrary computations, and
// pattern-based invalidation grouped by transit entity.
package cache

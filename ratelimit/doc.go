// Package ratelimit provides a multi-granularity sliding-window rate
// limiter for transit API clients.
//
// Each client accumulates a time-ordered usage ledger that is evaluated
// against a named limit profile (per-minute/hour/day request caps plus
// export and request size caps). Checks are atomic: concurrent callers
// cannot both observe a stale count and exceed a limit.
package ratelimit

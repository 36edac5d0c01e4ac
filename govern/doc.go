// Package govern is the facade over the governance layer: one Service
// owning the memoization store, the invalidation router, and the rate
// limiter, with telemetry wired through.
//
// Handlers interact with the Service in two ways: wrapping query
// computations with Cached, and admitting requests with CheckAndAdmit
// (or the HTTP middleware, which does both identity derivation and
// admission at the transport boundary).
package govern

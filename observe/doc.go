// Package observe provides observability primitives for the governance
// layer: structured JSON logging, OpenTelemetry metrics for cache lookups
// and admission decisions, and query-scoped tracing.
//
// It is a pure instrumentation library: no governance logic, no transport,
// no I/O beyond exporter setup. The facade wires an observer into the
// memoization and rate-limiting paths.
package observe

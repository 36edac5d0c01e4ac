package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records governance events: cache lookups, result computation,
// and admission decisions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording is best-effort.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache lookup for the named operation.
	RecordLookup(ctx context.Context, op string, hit bool)

	// RecordComputation records a cache-miss computation with its duration
	// and error status.
	RecordComputation(ctx context.Context, op string, duration time.Duration, err error)

	// RecordAdmission records a rate-limit decision for a category. On
	// rejection, exceeded names the threshold that tripped.
	RecordAdmission(ctx context.Context, category string, allowed bool, exceeded string)
}

type metricsImpl struct {
	lookups     metric.Int64Counter
	computeHist metric.Float64Histogram
	computeErrs metric.Int64Counter
	admissions  metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	lookups, err := meter.Int64Counter(
		"govern.cache.lookups",
		metric.WithDescription("Cache lookups by operation and outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	computeHist, err := meter.Float64Histogram(
		"govern.cache.compute_ms",
		metric.WithDescription("Cache-miss computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	computeErrs, err := meter.Int64Counter(
		"govern.cache.compute_errors",
		metric.WithDescription("Failed cache-miss computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	admissions, err := meter.Int64Counter(
		"govern.ratelimit.decisions",
		metric.WithDescription("Rate-limit decisions by category and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:     lookups,
		computeHist: computeHist,
		computeErrs: computeErrs,
		admissions:  admissions,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, op string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("query.op", op),
		attribute.String("cache.outcome", outcome),
	))
}

func (m *metricsImpl) RecordComputation(ctx context.Context, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("query.op", op))

	m.computeHist.Record(ctx, float64(duration.Milliseconds()), opt)
	if err != nil {
		m.computeErrs.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordAdmission(ctx context.Context, category string, allowed bool, exceeded string) {
	attrs := []attribute.KeyValue{
		attribute.String("limit.category", category),
	}
	if allowed {
		attrs = append(attrs, attribute.String("limit.outcome", "allowed"))
	} else {
		attrs = append(attrs,
			attribute.String("limit.outcome", "rejected"),
			attribute.String("limit.exceeded", exceeded),
		)
	}
	m.admissions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// noopMetrics records nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordLookup(ctx context.Context, op string, hit bool) {}
func (noopMetrics) RecordComputation(ctx context.Context, op string, duration time.Duration, err error) {
}
func (noopMetrics) RecordAdmission(ctx context.Context, category string, allowed bool, exceeded string) {
}

var _ Metrics = (*metricsImpl)(nil)
var _ Metrics = noopMetrics{}

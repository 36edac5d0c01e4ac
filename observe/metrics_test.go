package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetricsNilMeter(t *testing.T) {
	if _, err := NewMetrics(nil); !errors.Is(err, ErrNilMeter) {
		t.Fatalf("NewMetrics(nil) error = %v, want %v", err, ErrNilMeter)
	}
}

func TestMetricsRecording(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	ctx := context.Background()

	// Recording must be best-effort and never panic.
	m.RecordLookup(ctx, "get_stop_by_id", true)
	m.RecordLookup(ctx, "get_stop_by_id", false)
	m.RecordComputation(ctx, "search_stops", 35*time.Millisecond, nil)
	m.RecordComputation(ctx, "search_stops", time.Millisecond, errors.New("upstream down"))
	m.RecordAdmission(ctx, "search", true, "")
	m.RecordAdmission(ctx, "export", false, "requests_per_minute")
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()

	m.RecordLookup(ctx, "get_all_routes", true)
	m.RecordComputation(ctx, "get_all_routes", 0, nil)
	m.RecordAdmission(ctx, "default", false, "requests_per_day")
}

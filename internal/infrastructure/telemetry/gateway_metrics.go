package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GatewayMetrics records one counter increment and one latency sample per
// persistence gateway call. It satisfies gateway.Observer.
type GatewayMetrics struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewGatewayMetrics creates the gateway call, failure and latency instruments on meter
func NewGatewayMetrics(meter metric.Meter) (*GatewayMetrics, error) {
	calls, err := meter.Int64Counter("gateway.calls",
		metric.WithDescription("Persistence gateway calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("gateway.calls: %w", err)
	}
	failures, err := meter.Int64Counter("gateway.failures",
		metric.WithDescription("Persistence gateway calls that returned an error"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("gateway.failures: %w", err)
	}
	latency, err := meter.Float64Histogram("gateway.duration",
		metric.WithDescription("Persistence gateway call latency"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000))
	if err != nil {
		return nil, fmt.Errorf("gateway.duration: %w", err)
	}
	return &GatewayMetrics{calls: calls, failures: failures, latency: latency}, nil
}

// Observe implements gateway.Observer
func (m *GatewayMetrics) Observe(entity, operation string, d time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
	)
	m.calls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	}
}

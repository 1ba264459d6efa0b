package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricCallsTotal   = "apifire.calls.total"
	MetricCallDuration = "apifire.call.duration"
	MetricCallsActive  = "apifire.calls.active"
	MetricCallErrors   = "apifire.call.errors"
)

// CallMetrics holds the instruments recorded for every endpoint call.
type CallMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	errors   metric.Int64Counter
}

// NewCallMetrics creates the call instruments on meter.
func NewCallMetrics(meter metric.Meter) (*CallMetrics, error) {
	total, err := meter.Int64Counter(MetricCallsTotal,
		metric.WithDescription("Total number of endpoint calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCallsTotal, err)
	}

	duration, err := meter.Float64Histogram(MetricCallDuration,
		metric.WithDescription("Duration of endpoint calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricCallDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricCallsActive,
		metric.WithDescription("Number of endpoint calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricCallsActive, err)
	}

	errs, err := meter.Int64Counter(MetricCallErrors,
		metric.WithDescription("Transport failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCallErrors, err)
	}

	return &CallMetrics{total: total, duration: duration, active: active, errors: errs}, nil
}

// RecordStart increments the in-flight call count.
func (m *CallMetrics) RecordStart(ctx context.Context, kind string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordEnd decrements the in-flight count and records the completed call.
// errCode is empty when the transport succeeded.
func (m *CallMetrics) RecordEnd(ctx context.Context, kind, outcome, errCode string, duration time.Duration) {
	kindAttr := attribute.String("kind", kind)
	m.active.Add(ctx, -1, metric.WithAttributes(kindAttr))
	m.total.Add(ctx, 1, metric.WithAttributes(kindAttr, attribute.String("outcome", outcome)))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(kindAttr))
	if errCode != "" {
		m.errors.Add(ctx, 1, metric.WithAttributes(kindAttr, attribute.String("code", errCode)))
	}
}

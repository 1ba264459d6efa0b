package observability

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apifire/endpoint"
	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/session"
)

// Span attribute keys.
const (
	AttrCallID     = "apifire.call.id"
	AttrCallKind   = "apifire.call.kind"
	AttrTimeoutMs  = "apifire.call.timeout_ms"
	AttrMethod     = "http.request.method"
	AttrURL        = "url.full"
	AttrStatusCode = "http.response.status_code"
	AttrErrorCode  = "error.type"
)

// CallTracer is an endpoint.CallHooks implementation that wraps every
// executed call in a client span and records CallMetrics.
type CallTracer struct {
	tracer  trace.Tracer
	metrics *CallMetrics
}

var _ endpoint.CallHooks = (*CallTracer)(nil)

type spanKey struct{}

// NewCallTracer creates a CallTracer. Nil providers fall back to the
// global ones.
func NewCallTracer(tp trace.TracerProvider, mp metric.MeterProvider) (*CallTracer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	metrics, err := NewCallMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	return &CallTracer{tracer: tp.Tracer(instrumentationName), metrics: metrics}, nil
}

// CallStarted starts the call span.
func (t *CallTracer) CallStarted(ctx context.Context, info endpoint.CallInfo) context.Context {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("apifire.%s %s", info.Kind, info.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(info.Started),
		trace.WithAttributes(
			attribute.String(AttrCallID, info.ID),
			attribute.String(AttrCallKind, string(info.Kind)),
			attribute.String(AttrMethod, info.Method),
			attribute.String(AttrURL, info.URL),
			attribute.Int64(AttrTimeoutMs, info.Timeout.Milliseconds()),
		),
	)
	t.metrics.RecordStart(ctx, string(info.Kind))
	return context.WithValue(ctx, spanKey{}, span)
}

// CallEnded ends the call span and records the call.
func (t *CallTracer) CallEnded(ctx context.Context, info endpoint.CallInfo, resp *session.Response) {
	span, ok := ctx.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}

	var errCode string
	switch {
	case resp.Err != nil:
		if appErr, ok := errors.AsAppError(resp.Err); ok {
			errCode = string(appErr.Code)
		} else {
			errCode = "UNKNOWN"
		}
		span.RecordError(resp.Err)
		span.SetStatus(codes.Error, errCode)
		span.SetAttributes(attribute.String(AttrErrorCode, errCode))
	case resp.StatusCode >= 400:
		span.SetStatus(codes.Error, strconv.Itoa(resp.StatusCode))
	}
	if resp.HasStatus() {
		span.SetAttributes(attribute.Int(AttrStatusCode, resp.StatusCode))
	}
	span.End()

	t.metrics.RecordEnd(ctx, string(info.Kind), outcome(resp), errCode, resp.Duration)
}

// outcome buckets a response for the calls counter.
func outcome(resp *session.Response) string {
	switch {
	case resp.StatusCode == session.StatusTimeout:
		return "timeout"
	case resp.Err != nil:
		return "error"
	case resp.StatusCode >= 500:
		return "5xx"
	case resp.StatusCode >= 400:
		return "4xx"
	case resp.StatusCode >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

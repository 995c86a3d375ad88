// Package observability connects an eventtrace System to metrics and
// tracing backends.
//
// Features:
//   - eventtrace.Metrics via OpenTelemetry (NewMetrics) or Prometheus
//     (NewPrometheusMetrics)
//   - Queue gauges for Prometheus (RegisterQueueCollectors)
//   - SpanConsumer, a consumer turning records into OpenTelemetry spans
//
// Everything is opt-in; a System without these uses eventtrace.NoopMetrics.
package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
)

// ScopeName is the instrumentation scope of meters and tracers.
const ScopeName = "github.com/randalmurphal/eventtrace"

// otelMetrics implements eventtrace.Metrics using OpenTelemetry.
type otelMetrics struct {
	emitted   metric.Int64Counter
	lost      metric.Int64Counter
	delivered metric.Int64Counter
	latency   metric.Float64Histogram
	failures  metric.Int64Counter
}

// newOtelMetrics creates the instruments on meter.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	emitted, err := meter.Int64Counter("eventtrace.events.emitted",
		metric.WithDescription("Number of trace events offered to the queue"),
	)
	if err != nil {
		return nil, err
	}

	lost, err := meter.Int64Counter("eventtrace.events.lost",
		metric.WithDescription("Number of trace events rejected by a full queue"),
	)
	if err != nil {
		return nil, err
	}

	delivered, err := meter.Int64Counter("eventtrace.events.delivered",
		metric.WithDescription("Number of trace events dispatched to consumers"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("eventtrace.dispatch.latency_ms",
		metric.WithDescription("Time to dispatch one trace event to all consumers, in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("eventtrace.dispatch.failures",
		metric.WithDescription("Number of failed deliveries to a consumer"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emitted:   emitted,
		lost:      lost,
		delivered: delivered,
		latency:   latency,
		failures:  failures,
	}, nil
}

// NewMetrics returns eventtrace.Metrics backed by the global OTel meter
// provider. If the instruments cannot be created it logs a warning and
// returns eventtrace.NoopMetrics.
//
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetrics() eventtrace.Metrics {
	return NewMetricsWithMeter(otel.Meter(ScopeName))
}

// NewMetricsWithMeter is NewMetrics on an explicit meter.
func NewMetricsWithMeter(meter metric.Meter) eventtrace.Metrics {
	m, err := newOtelMetrics(meter)
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return eventtrace.NoopMetrics{}
	}
	return m
}

func eventAttrs(contract, event string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("contract", contract),
		attribute.String("event", event),
	)
}

// EventEmitted records an offered event.
func (m *otelMetrics) EventEmitted(ctx context.Context, contract, event string) {
	m.emitted.Add(ctx, 1, eventAttrs(contract, event))
}

// EventLost records a rejected event.
func (m *otelMetrics) EventLost(ctx context.Context, contract, event string) {
	m.lost.Add(ctx, 1, eventAttrs(contract, event))
}

// EventDelivered records a dispatched event and its dispatch time.
func (m *otelMetrics) EventDelivered(ctx context.Context, contract, event string, d time.Duration) {
	attrs := eventAttrs(contract, event)
	m.delivered.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
}

// DeliveryFailed records a failed delivery.
func (m *otelMetrics) DeliveryFailed(ctx context.Context, contract, event string) {
	m.failures.Add(ctx, 1, eventAttrs(contract, event))
}

package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
)

// PrometheusMetrics implements eventtrace.Metrics with Prometheus
// collectors labelled by contract and event.
type PrometheusMetrics struct {
	Emitted   *prometheus.CounterVec
	Lost      *prometheus.CounterVec
	Delivered *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Failures  *prometheus.CounterVec
}

var eventLabels = []string{"contract", "event"}

// NewPrometheusMetrics creates the collectors and registers them on reg.
// A nil reg registers nothing.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		Emitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventtrace_events_emitted_total",
				Help: "Total number of trace events offered to the queue",
			},
			eventLabels,
		),
		Lost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventtrace_events_lost_total",
				Help: "Total number of trace events rejected by a full queue",
			},
			eventLabels,
		),
		Delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventtrace_events_delivered_total",
				Help: "Total number of trace events dispatched to consumers",
			},
			eventLabels,
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventtrace_dispatch_duration_seconds",
				Help:    "Time to dispatch one trace event to all consumers",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			eventLabels,
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventtrace_dispatch_failures_total",
				Help: "Total number of failed deliveries to a consumer",
			},
			eventLabels,
		),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.Emitted, m.Lost, m.Delivered, m.Latency, m.Failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EventEmitted implements eventtrace.Metrics.
func (m *PrometheusMetrics) EventEmitted(_ context.Context, contract, event string) {
	m.Emitted.WithLabelValues(contract, event).Inc()
}

// EventLost implements eventtrace.Metrics.
func (m *PrometheusMetrics) EventLost(_ context.Context, contract, event string) {
	m.Lost.WithLabelValues(contract, event).Inc()
}

// EventDelivered implements eventtrace.Metrics.
func (m *PrometheusMetrics) EventDelivered(_ context.Context, contract, event string, d time.Duration) {
	m.Delivered.WithLabelValues(contract, event).Inc()
	m.Latency.WithLabelValues(contract, event).Observe(d.Seconds())
}

// DeliveryFailed implements eventtrace.Metrics.
func (m *PrometheusMetrics) DeliveryFailed(_ context.Context, contract, event string) {
	m.Failures.WithLabelValues(contract, event).Inc()
}

var _ eventtrace.Metrics = (*PrometheusMetrics)(nil)

// RegisterQueueCollectors registers gauges reading the queue state of sys:
// buffered records, capacity and lost totals.
func RegisterQueueCollectors(reg prometheus.Registerer, sys *eventtrace.System) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "eventtrace_queue_length",
				Help: "Number of trace events buffered in the queue",
			},
			func() float64 { return float64(sys.QueueLen()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "eventtrace_queue_capacity",
				Help: "Capacity of the trace event queue",
			},
			func() float64 { return float64(sys.QueueCapacity()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "eventtrace_queue_lost_total",
				Help: "Total number of trace events lost since startup",
			},
			func() float64 { return float64(sys.LostEvents().Total) },
		),
	}

	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"
)

// setupMetricsTest creates a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the value of the counter data point for contract and event.
func sumFor(t *testing.T, rm *metricdata.ResourceMetrics, name, contract, event string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	for _, dp := range sum.DataPoints {
		c, _ := dp.Attributes.Value("contract")
		e, _ := dp.Attributes.Value("event")
		if c.AsString() == contract && e.AsString() == event {
			return dp.Value
		}
	}
	return 0
}

func TestNewMetrics(t *testing.T) {
	setupMetricsTest(t)

	m := NewMetrics()
	require.NotNil(t, m)
	_, isNoop := m.(eventtrace.NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestOtelMetricsRecord(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics(otel.Meter(ScopeName))
	require.NoError(t, err)

	ctx := context.Background()
	m.EventEmitted(ctx, "net.Conn", "connected")
	m.EventEmitted(ctx, "net.Conn", "connected")
	m.EventLost(ctx, "net.Conn", "connected")
	m.EventDelivered(ctx, "net.Conn", "connected", 3*time.Millisecond)
	m.DeliveryFailed(ctx, "net.Conn", "closed")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "eventtrace.events.emitted", "net.Conn", "connected"))
	assert.Equal(t, int64(1), sumFor(t, rm, "eventtrace.events.lost", "net.Conn", "connected"))
	assert.Equal(t, int64(1), sumFor(t, rm, "eventtrace.events.delivered", "net.Conn", "connected"))
	assert.Equal(t, int64(1), sumFor(t, rm, "eventtrace.dispatch.failures", "net.Conn", "closed"))

	latency := findMetric(rm, "eventtrace.dispatch.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 3.0, hist.DataPoints[0].Sum, 0.001)
}

func TestOtelMetricsWithSystem(t *testing.T) {
	reader := setupMetricsTest(t)

	contract := eventtrace.NewContract("obs.Metrics")
	ping := contract.Event("ping", nil)

	sys := eventtrace.New(
		eventtrace.WithSink(logsink.Discard),
		eventtrace.WithMetrics(NewMetrics()),
		eventtrace.WithQueueCapacity(1),
	)
	defer sys.Close(context.Background())

	p := sys.NewProxy(contract, t)
	p.Emit(context.Background(), ping)
	p.Emit(context.Background(), ping) // lost

	_, err := sys.AddConsumer(eventtrace.ConsumerFunc(func(*eventtrace.Record) {}))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sys.WaitEmpty(ctx))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "eventtrace.events.emitted", "obs.Metrics", "ping"))
	assert.Equal(t, int64(1), sumFor(t, rm, "eventtrace.events.lost", "obs.Metrics", "ping"))
	assert.Equal(t, int64(1), sumFor(t, rm, "eventtrace.events.delivered", "obs.Metrics", "ping"))
}

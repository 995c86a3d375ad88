package observability

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
)

// SpanConsumer is a generic consumer that records every trace event as a
// zero-length span. Spans are named "<contract>.<event>" and start at the
// record's timestamp. Error arguments are recorded on the span and mark it
// failed.
//
//	sys.AddConsumer(observability.NewSpanConsumer(sys, nil))
type SpanConsumer struct {
	sys    *eventtrace.System
	tracer trace.Tracer
}

// NewSpanConsumer creates a span consumer. A nil tp uses the global tracer
// provider.
func NewSpanConsumer(sys *eventtrace.System, tp trace.TracerProvider) *SpanConsumer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &SpanConsumer{
		sys:    sys,
		tracer: tp.Tracer(ScopeName),
	}
}

// Consume implements eventtrace.Consumer.
func (c *SpanConsumer) Consume(rec *eventtrace.Record) {
	_, span := c.tracer.Start(context.Background(), rec.Contract()+"."+rec.Event(),
		trace.WithTimestamp(rec.Timestamp()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(RecordAttributes(c.sys, rec)...),
	)

	var failed error
	for _, arg := range rec.Args() {
		if err, ok := eventtrace.ErrorArg(arg); ok {
			span.RecordError(err, trace.WithTimestamp(rec.Timestamp()))
			failed = errors.Join(failed, err)
		}
	}
	if failed != nil {
		span.SetStatus(codes.Error, failed.Error())
	}

	span.End(trace.WithTimestamp(rec.Timestamp()))
}

var _ eventtrace.Consumer = (*SpanConsumer)(nil)

// RecordAttributes describes rec as span attributes. Arguments are rendered
// with the System's renderers under "arg.<name>", or "arg.<index>" when
// names are unavailable.
func RecordAttributes(sys *eventtrace.System, rec *eventtrace.Record) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("eventtrace.contract", rec.Contract()),
		attribute.String("eventtrace.event", rec.Event()),
		attribute.String("eventtrace.severity", rec.Severity().String()),
		attribute.String("eventtrace.source_type", rec.SourceType()),
	}
	if rec.Tag() != "" {
		attrs = append(attrs, attribute.String("eventtrace.tag", rec.Tag()))
	}
	if rec.Context() != "" {
		attrs = append(attrs, attribute.String("eventtrace.context", rec.Context()))
	}
	if snap, ok := rec.Diagnostics(); ok {
		for _, k := range snap.Keys() {
			v, _ := snap.Get(k)
			attrs = append(attrs, attribute.String("diag."+k, v))
		}
	}

	names := rec.ArgNames()
	for i, arg := range rec.Args() {
		key := "arg." + strconv.Itoa(i)
		if len(names) == rec.Arity() {
			key = "arg." + names[i]
		}
		attrs = append(attrs, attribute.String(key, sys.Renderers().Render(arg)))
	}
	return attrs
}

package eventtrace

import (
	"context"
	"time"
)

// Metrics receives counts from the dispatch pipeline.
// Implementations must be safe for concurrent use; EventEmitted and
// EventLost run on producer goroutines.
type Metrics interface {
	// EventEmitted is called for every record offered to the queue.
	EventEmitted(ctx context.Context, contract, event string)

	// EventLost is called when the queue rejects a record.
	EventLost(ctx context.Context, contract, event string)

	// EventDelivered is called after a record has been dispatched to all
	// matching consumers.
	EventDelivered(ctx context.Context, contract, event string, d time.Duration)

	// DeliveryFailed is called for each failed delivery to one consumer.
	DeliveryFailed(ctx context.Context, contract, event string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) EventEmitted(context.Context, string, string)                  {}
func (NoopMetrics) EventLost(context.Context, string, string)                     {}
func (NoopMetrics) EventDelivered(context.Context, string, string, time.Duration) {}
func (NoopMetrics) DeliveryFailed(context.Context, string, string)                {}

var _ Metrics = NoopMetrics{}

package eventtrace

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	// DefaultQueueCapacity is the number of records the queue buffers.
	DefaultQueueCapacity = 10000

	// DefaultLostWarningInterval is the minimum time between two lost-event
	// summaries.
	DefaultLostWarningInterval = 10 * time.Second
)

// LostStats counts records rejected by a full queue.
type LostStats struct {
	Total        uint64 // Since the System was created
	SinceWarning uint64 // Since the last summary warning
}

// queue is the bounded buffer between producers and the dispatch goroutine.
type queue struct {
	ch       chan *Record
	interval time.Duration

	// pending counts records offered and not yet processed or discarded.
	pending atomic.Int64

	lostTotal atomic.Uint64
	lostSince atomic.Uint64
	lastWarn  atomic.Int64 // UnixNano of the last summary
}

func newQueue(capacity int, interval time.Duration, now time.Time) *queue {
	q := &queue{
		ch:       make(chan *Record, capacity),
		interval: interval,
	}
	q.lastWarn.Store(now.UnixNano())
	return q
}

// offer enqueues rec without blocking and reports whether it was accepted.
func (s *System) offer(ctx context.Context, rec *Record) bool {
	s.metrics.EventEmitted(ctx, rec.contract, rec.event)

	q := s.queue
	q.pending.Add(1)
	select {
	case q.ch <- rec:
		return true
	default:
	}
	q.pending.Add(-1)

	s.lost(ctx, rec)
	return false
}

func (s *System) lost(ctx context.Context, rec *Record) {
	q := s.queue
	total := q.lostTotal.Add(1)
	q.lostSince.Add(1)
	s.metrics.EventLost(ctx, rec.contract, rec.event)

	if s.syncLogging.Load() {
		s.log(Warn, "trace event lost, see previous line", nil)
	} else {
		s.log(Warn, "lost trace event: "+s.Describe(rec), nil)
	}

	now := s.clock().UnixNano()
	last := q.lastWarn.Load()
	if now-last < int64(q.interval) || !q.lastWarn.CompareAndSwap(last, now) {
		return
	}
	since := q.lostSince.Swap(0)
	s.log(Warn, fmt.Sprintf("%d trace events lost since last warning, %d in total (queue capacity %d)",
		since, total, cap(q.ch)), nil)
}

// Enqueue offers a record built outside a Proxy, for example with
// NewRecord. It never blocks and reports whether the record was accepted.
// Unlike Proxy.Emit it neither logs nor checks the enabled switch.
func (s *System) Enqueue(rec *Record) bool {
	if rec == nil {
		return false
	}
	return s.offer(context.Background(), rec)
}

// LostEvents returns the lost-event counters.
func (s *System) LostEvents() LostStats {
	return LostStats{
		Total:        s.queue.lostTotal.Load(),
		SinceWarning: s.queue.lostSince.Load(),
	}
}

// QueueLen returns the number of buffered records.
func (s *System) QueueLen() int { return len(s.queue.ch) }

// QueueCapacity returns the queue capacity.
func (s *System) QueueCapacity() int { return cap(s.queue.ch) }

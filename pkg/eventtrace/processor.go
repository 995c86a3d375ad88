package eventtrace

import (
	"context"
	"sync"
	"time"
)

// processor owns the dispatch goroutine. At most one run is active; a new
// run starts only after the previous one has exited.
type processor struct {
	mu  sync.Mutex
	run *run
}

type run struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (r *run) cancel() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *run) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// ensureRunning starts the dispatch goroutine unless it is running.
// A run that is being cancelled is waited for first.
func (s *System) ensureRunning() {
	s.proc.mu.Lock()
	defer s.proc.mu.Unlock()

	if r := s.proc.run; r != nil {
		if !r.stopping() {
			return
		}
		<-r.done
	}

	r := &run{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.proc.run = r
	go s.loop(r)
}

func (s *System) loop(r *run) {
	defer close(r.done)

	for {
		// Prefer stopping over a ready record.
		select {
		case <-r.stop:
			return
		default:
		}

		select {
		case <-r.stop:
			return
		case rec := <-s.queue.ch:
			s.process(rec)
		}
	}
}

func (s *System) process(rec *Record) {
	defer s.queue.pending.Add(-1)

	if !s.active() {
		return
	}

	ctx := context.Background()
	start := time.Now()
	s.dispatch(ctx, rec)
	s.metrics.EventDelivered(ctx, rec.contract, rec.event, time.Since(start))
}

// Running reports whether the dispatch goroutine is running and not being
// cancelled.
func (s *System) Running() bool {
	s.proc.mu.Lock()
	defer s.proc.mu.Unlock()
	return s.proc.run != nil && !s.proc.run.stopping()
}

// Cancel stops the dispatch goroutine and waits for it to exit, or for ctx
// to be done. Queued records stay queued; adding a consumer starts a new
// goroutine that resumes with them.
func (s *System) Cancel(ctx context.Context) error {
	s.proc.mu.Lock()
	r := s.proc.run
	s.proc.mu.Unlock()

	if r == nil {
		return nil
	}
	r.cancel()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the System down. It is Cancel under the name used for
// shutdown.
func (s *System) Close(ctx context.Context) error {
	return s.Cancel(ctx)
}

// Flush discards every queued record. While any Flush is in progress
// Emit drops records and the dispatch goroutine discards what it pulls;
// the enabled switch itself is left untouched, so overlapping calls are
// safe. Flush returns once a record being dispatched concurrently has
// finished, or when ctx is done.
func (s *System) Flush(ctx context.Context) error {
	s.flushing.Add(1)
	defer s.flushing.Add(-1)

drain:
	for {
		select {
		case <-s.queue.ch:
			s.queue.pending.Add(-1)
		default:
			break drain
		}
	}

	return s.WaitEmpty(ctx)
}

// WaitEmpty blocks until every offered record has been dispatched or
// discarded, or until ctx is done.
func (s *System) WaitEmpty(ctx context.Context) error {
	if s.queue.pending.Load() == 0 {
		return nil
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.queue.pending.Load() == 0 {
				return nil
			}
		}
	}
}

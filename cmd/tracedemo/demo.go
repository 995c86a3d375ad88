package main

import (
	"sync/atomic"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
)

// Worker is the demo contract.
var (
	Worker = eventtrace.NewContract("demo.Worker", eventtrace.WithSeverity(eventtrace.Info))

	JobStarted  = Worker.Event("started", []string{"job"})
	JobProgress = Worker.Event("progress", []string{"job", "percent"}, eventtrace.WithSeverity(eventtrace.Debug))
	JobFinished = Worker.Event("finished", []string{"job", "err"})
)

// worker is the emitting side of the demo.
type worker struct {
	name string
}

// counter is a Worker listener that counts deliveries per event.
type counter struct {
	handlers *eventtrace.Handlers

	started  atomic.Int64
	progress atomic.Int64
	finished atomic.Int64
	failed   atomic.Int64
}

func newCounter() *counter {
	c := &counter{handlers: eventtrace.NewHandlers(Worker)}
	eventtrace.On1(c.handlers, JobStarted, func(string) { c.started.Add(1) })
	eventtrace.On2(c.handlers, JobProgress, func(string, int) { c.progress.Add(1) })
	eventtrace.On2(c.handlers, JobFinished, func(_ string, err error) {
		c.finished.Add(1)
		if err != nil {
			c.failed.Add(1)
		}
	})
	return c
}

// Handlers implements eventtrace.Listener.
func (c *counter) Handlers() *eventtrace.Handlers { return c.handlers }

func (c *counter) total() int64 {
	return c.started.Load() + c.progress.Load() + c.finished.Load()
}

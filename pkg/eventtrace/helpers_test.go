package eventtrace_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"
)

var (
	connContract = eventtrace.NewContract("test.Conn")
	evConnected  = connContract.Event("connected", []string{"addr"})
	evClosed     = connContract.Event("closed", []string{"addr", "err"}, eventtrace.WithSeverity(eventtrace.Warn))
	evTick       = connContract.Event("tick", nil)

	otherContract = eventtrace.NewContract("test.Other")
	evOther       = otherContract.Event("other", []string{"n"})
)

const waitFor = 2 * time.Second

type testOwner struct{}

// collector is a generic consumer that keeps every record.
type collector struct {
	mu   sync.Mutex
	recs []*eventtrace.Record
}

func (c *collector) Consume(rec *eventtrace.Record) {
	c.mu.Lock()
	c.recs = append(c.recs, rec)
	c.mu.Unlock()
}

func (c *collector) Records() []*eventtrace.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*eventtrace.Record, len(c.recs))
	copy(out, c.recs)
	return out
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.recs)
}

// errorLog collects errors passed to the System's error handler.
type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) handle(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *errorLog) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

// newTestSystem creates a System logging to memory and closes it when the
// test ends.
func newTestSystem(t *testing.T, opts ...eventtrace.SystemOption) (*eventtrace.System, *logsink.Memory) {
	t.Helper()
	mem := logsink.NewMemory()
	sys := eventtrace.New(append([]eventtrace.SystemOption{eventtrace.WithSink(mem)}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		require.NoError(t, sys.Close(ctx))
	})
	return sys, mem
}

func waitEmpty(t *testing.T, sys *eventtrace.System) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, sys.WaitEmpty(ctx))
}

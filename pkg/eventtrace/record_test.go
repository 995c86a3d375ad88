package eventtrace_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/diag"
)

func TestNamedArgs(t *testing.T) {
	rec := eventtrace.NewRecord(eventtrace.RecordFields{
		Contract: "test.Conn",
		Event:    "log",
		Args:     []any{"a", 1},
		ArgNames: []string{"msg", "n"},
	})

	named, err := rec.NamedArgs()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"msg": "a", "n": 1}, named)
}

func TestNamedArgsMismatch(t *testing.T) {
	rec := eventtrace.NewRecord(eventtrace.RecordFields{
		Event:    "log",
		Args:     []any{"a", 1},
		ArgNames: []string{"msg"},
	})

	named, err := rec.NamedArgs()
	assert.ErrorIs(t, err, eventtrace.ErrArgNamesMismatch)
	assert.Nil(t, named)
}

func TestNamedArgsUnavailable(t *testing.T) {
	rec := eventtrace.NewRecord(eventtrace.RecordFields{
		Event: "log",
		Args:  []any{"a"},
	})

	named, err := rec.NamedArgs()
	assert.ErrorIs(t, err, eventtrace.ErrNoArgNames)
	assert.Nil(t, named)
	assert.Nil(t, rec.ArgNames())
}

func TestRecordCopiesSlices(t *testing.T) {
	args := []any{"a", 1}
	names := []string{"msg", "n"}
	rec := eventtrace.NewRecord(eventtrace.RecordFields{Args: args, ArgNames: names})

	args[0] = "changed"
	names[0] = "changed"
	assert.Equal(t, "a", rec.Arg(0))
	assert.Equal(t, []string{"msg", "n"}, rec.ArgNames())

	got := rec.Args()
	got[1] = 2
	assert.Equal(t, 1, rec.Arg(1))
	assert.Nil(t, rec.Arg(5))
	assert.Equal(t, 2, rec.Arity())
}

func TestRecordEqual(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := diag.NewMap(map[string]string{"req": "42"})
	fields := eventtrace.RecordFields{
		Timestamp:   ts,
		Severity:    eventtrace.Info,
		SourceType:  "pkg.Owner",
		Tag:         "main",
		Context:     "ctx",
		Diagnostics: &snap,
		Contract:    "test.Conn",
		Event:       "closed",
		Args:        []any{"addr", []int{1, 2}},
		ArgNames:    []string{"addr", "ports"},
	}

	a := eventtrace.NewRecord(fields)
	b := eventtrace.NewRecord(fields)
	assert.True(t, a.Equal(b), "deep argument equality")

	fields.Timestamp = ts.In(time.FixedZone("X", 3600))
	assert.True(t, a.Equal(eventtrace.NewRecord(fields)), "same instant")

	changed := fields
	changed.Args = []any{"addr", []int{1, 3}}
	assert.False(t, a.Equal(eventtrace.NewRecord(changed)))

	changed = fields
	changed.ArgNames = nil
	assert.False(t, a.Equal(eventtrace.NewRecord(changed)))

	changed = fields
	changed.Diagnostics = nil
	assert.False(t, a.Equal(eventtrace.NewRecord(changed)))

	other := diag.NewMap(map[string]string{"req": "43"})
	changed = fields
	changed.Diagnostics = &other
	assert.False(t, a.Equal(eventtrace.NewRecord(changed)))

	assert.False(t, a.Equal(nil))
}

func TestRecordOrigin(t *testing.T) {
	sys, _ := newTestSystem(t, eventtrace.WithEventOverride("test.Conn.tick", eventtrace.WithSourceLocation(true)))
	c := &collector{}
	_, err := sys.AddConsumer(c)
	require.NoError(t, err)

	p := sys.NewProxy(connContract, &testOwner{})
	p.Emit(context.Background(), evTick)
	p.Emit(context.Background(), evConnected, "x")

	require.Eventually(t, func() bool { return c.Len() == 2 }, waitFor, time.Millisecond)
	recs := c.Records()

	origin := recs[0].Origin()
	require.NotNil(t, origin)
	assert.Contains(t, origin.Function(), "TestRecordOrigin")
	assert.Contains(t, origin.Location(), "record_test.go:")
	assert.Contains(t, origin.StackTrace(), "TestRecordOrigin")

	assert.Nil(t, recs[1].Origin(), "source location not requested")
}

// connTracer is a typed proxy for connContract.
type connTracer struct{ *eventtrace.Proxy }

func (t connTracer) Tick(ctx context.Context) { t.Emit(ctx, evTick) }

func TestRecordOriginThroughTypedProxy(t *testing.T) {
	sys, _ := newTestSystem(t, eventtrace.WithEventOverride("test.Conn.tick", eventtrace.WithSourceLocation(true)))
	c := &collector{}
	_, err := sys.AddConsumer(c)
	require.NoError(t, err)

	skipping := connTracer{sys.NewProxy(connContract, &testOwner{}, eventtrace.WithCallerSkip(1))}
	plain := connTracer{sys.NewProxy(connContract, &testOwner{})}
	skipping.Tick(context.Background())
	plain.Tick(context.Background())

	require.Eventually(t, func() bool { return c.Len() == 2 }, waitFor, time.Millisecond)
	recs := c.Records()

	require.NotNil(t, recs[0].Origin())
	assert.Contains(t, recs[0].Origin().Function(), "TestRecordOriginThroughTypedProxy")
	assert.NotContains(t, recs[0].Origin().Function(), "connTracer")

	require.NotNil(t, recs[1].Origin())
	assert.Contains(t, recs[1].Origin().Function(), "connTracer.Tick")
}

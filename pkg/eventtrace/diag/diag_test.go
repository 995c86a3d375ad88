package diag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAndGet(t *testing.T) {
	ctx := With(context.Background(), "request_id", "r-1")
	ctx = With(ctx, "user", "ada")

	v, ok := Get(ctx, "request_id")
	require.True(t, ok)
	assert.Equal(t, "r-1", v)

	_, ok = Get(ctx, "missing")
	assert.False(t, ok)
}

func TestSnapshotIsImmutable(t *testing.T) {
	ctx := With(context.Background(), "a", "1")
	snap, ok := Snapshot(ctx)
	require.True(t, ok)

	ctx = With(ctx, "a", "2")
	ctx = With(ctx, "b", "3")

	v, _ := snap.Get("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, snap.Len())

	v, _ = Get(ctx, "a")
	assert.Equal(t, "2", v)
}

func TestSnapshotAbsent(t *testing.T) {
	_, ok := Snapshot(context.Background())
	assert.False(t, ok)

	ctx := Cleared(With(context.Background(), "a", "1"))
	_, ok = Snapshot(ctx)
	assert.False(t, ok)
}

func TestWithout(t *testing.T) {
	parent := With(With(context.Background(), "a", "1"), "b", "2")
	child := Without(parent, "a")

	_, ok := Get(child, "a")
	assert.False(t, ok)
	_, ok = Get(parent, "a")
	assert.True(t, ok, "parent context must be unaffected")

	assert.Equal(t, parent, Without(parent, "zzz"))
}

func TestWithMap(t *testing.T) {
	ctx := With(context.Background(), "a", "1")
	ctx = WithMap(ctx, NewMap(map[string]string{"b": "2", "a": "override"}))

	assert.Equal(t, map[string]string{"a": "override", "b": "2"}, From(ctx).ToMap())
}

func TestMapStringAndEqual(t *testing.T) {
	m := NewMap(map[string]string{"z": "26", "a": "1"})
	assert.Equal(t, "{a=1, z=26}", m.String())
	assert.Equal(t, []string{"a", "z"}, m.Keys())

	assert.True(t, m.Equal(NewMap(map[string]string{"a": "1", "z": "26"})))
	assert.False(t, m.Equal(Map{}))
	assert.True(t, Map{}.Equal(NewMap(nil)))
	assert.Equal(t, "{}", Map{}.String())
}

func TestFromNilContext(t *testing.T) {
	assert.Equal(t, 0, From(nil).Len())
}

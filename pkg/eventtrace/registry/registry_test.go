package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()
	assert.Equal(t, 0, r.Len())

	r.Register("net.Conn", 1)
	r.Register("db.Query", 2)

	v, ok := r.Get("net.Conn")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, v)

	r.Register("net.Conn", 10)
	v, _ = r.Get("net.Conn")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, r.Len())
}

func TestDeleteAndClear(t *testing.T) {
	r := New[string, string]()
	r.Register("a", "1")
	r.Register("b", "2")

	assert.True(t, r.Delete("a"))
	assert.False(t, r.Delete("a"))
	_, ok := r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)
	r.Register("two", 2)

	snap := r.Snapshot()
	assert.Equal(t, map[string]int{"one": 1, "two": 2}, snap)

	snap["three"] = 3
	r.Register("four", 4)
	assert.Equal(t, 3, r.Len())
	assert.NotContains(t, snap, "four")
}

func TestGetOrCreate(t *testing.T) {
	r := New[string, int]()
	calls := 0
	create := func() int {
		calls++
		return 42
	}

	assert.Equal(t, 42, r.GetOrCreate("key", create))
	assert.Equal(t, 42, r.GetOrCreate("key", create))
	assert.Equal(t, 1, calls)
}

func TestLoadOrStore(t *testing.T) {
	r := New[string, string]()

	v, loaded := r.LoadOrStore("k", "first")
	assert.False(t, loaded)
	assert.Equal(t, "first", v)

	v, loaded = r.LoadOrStore("k", "second")
	assert.True(t, loaded)
	assert.Equal(t, "first", v)
}

func TestPointerKeys(t *testing.T) {
	type event struct{ name string }
	a, b := &event{"x"}, &event{"x"}

	r := New[*event, int]()
	r.Register(a, 1)

	_, ok := r.Get(a)
	assert.True(t, ok)
	_, ok = r.Get(b)
	assert.False(t, ok, "keys are compared by identity")
}

func TestConcurrentGetOrCreate(t *testing.T) {
	r := New[string, int]()
	var wg sync.WaitGroup
	var calls atomic.Int32

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := r.GetOrCreate("key", func() int {
				calls.Add(1)
				return 42
			})
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, r.Len())
}

func TestConcurrentReadWrite(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup

	for w := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 100 {
				r.Register(id*1000+j, j)
			}
		}(w)
	}
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = r.Snapshot()
				_, _ = r.Get(5)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, r.Len())
}

package atomicdict

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDict(t testing.TB, maxEntries int, layout Layout) *Dict {
	t.Helper()

	geo, err := DictGeometry(maxEntries, layout)
	require.NoError(t, err)

	d, err := NewDict(newRegion(t, geo.Size()).Bytes(), geo)
	require.NoError(t, err)

	return d
}

func TestDict_Basic(t *testing.T) {
	d := newDict(t, 16, dictLayout)

	// Set and Get
	require.NoError(t, d.Set(42, 7))

	v, err := d.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	// Update existing key
	require.NoError(t, d.Set(100, 7))

	v, err = d.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	// Get inserts unknown keys with a zero value
	v, err = d.Get(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, 2, d.Len())

	// Lookup doesn't
	_, ok, err := d.Lookup(9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, d.Len())

	prev, err := d.Add(5, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), prev)

	v, ok, err = d.Lookup(7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(105), v)
}

func TestDict_Errors(t *testing.T) {
	_, err := DictGeometry(16, setLayout)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = DictGeometry(16, Layout{K64: 1, V64: 1, V32: 1})
	require.ErrorIs(t, err, ErrConfiguration)

	geo, err := NewGeometry(16, setLayout, SetLoadFactor)
	require.NoError(t, err)

	_, err = NewDict(newRegion(t, geo.Size()).Bytes(), geo)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = AttachDict(newRegion(t, geo.Size()).Bytes(), setLayout)
	require.ErrorIs(t, err, ErrConfiguration)

	d := newDict(t, 16, dictLayout)
	require.ErrorIs(t, d.Set(1, 0), ErrInvalidKey)

	_, err = d.Get(0)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestDict_ZeroEntries(t *testing.T) {
	d := newDict(t, 0, dictLayout)

	require.Equal(t, MinBlockCount, d.Geometry().BlockCount)
	require.NoError(t, d.Set(1, 1))
}

func TestDict_NarrowValues(t *testing.T) {
	d := newDict(t, 64, narrowLayout)

	require.NoError(t, d.Set(1<<32+5, 3))

	v, err := d.Get(3)
	require.NoError(t, err)
	require.Equal(t, uint64(5), v)
}

func TestDict_Attach(t *testing.T) {
	geo, err := DictGeometry(1024, pairLayout)
	require.NoError(t, err)

	r := newRegion(t, geo.Size())

	d1, err := NewDict(r.Bytes(), geo)
	require.NoError(t, err)
	require.NoError(t, d1.Set(12, 1, 2))

	d2, err := AttachDict(r.Bytes(), pairLayout)
	require.NoError(t, err)

	v, err := d2.Get(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(12), v)
}

func TestDict_SharedCounter(t *testing.T) {
	const (
		workers = 16
		adds    = 32 * 1024
		total   = workers * adds
	)

	d := newDict(t, 1024*1024, dictLayout)

	require.NoError(t, d.Set(52, 20))
	require.NoError(t, d.Set(99, 3))

	got := make(map[uint64]uint64)
	for key, val := range d.All() {
		got[key[0]] = val
	}
	require.Equal(t, map[uint64]uint64{20: 52, 3: 99}, got)

	var (
		wg   sync.WaitGroup
		seen = make([][]uint64, workers)
	)

	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			counter, err := d.Slot(1)
			if !assert.NoError(t, err) {
				return
			}

			seen[w] = make([]uint64, 0, adds)
			for range adds {
				seen[w] = append(seen[w], counter.Add(1))
			}
		}()
	}

	wg.Wait()

	v, err := d.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint64(total), v)

	// Previous values are disjoint between workers and cover [0, total).
	var all []uint64
	for _, prevs := range seen {
		require.Len(t, prevs, adds)
		require.True(t, slices.IsSorted(prevs), "one worker observes increasing values")
		all = append(all, prevs...)
	}

	slices.Sort(all)
	for i, p := range all {
		require.Equal(t, uint64(i), p)
	}
}

func TestDict_NarrowKeyWideCounter(t *testing.T) {
	d := newDict(t, 100, Layout{K32: 1, V64: 1})

	for k := uint64(1); k <= 100; k++ {
		_, err := d.Add(1<<40+k, k)
		require.NoError(t, err)
	}

	for k := uint64(1); k <= 100; k++ {
		v, ok, err := d.Lookup(k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1<<40+k, v, "64-bit counter behind a 32-bit key")
	}

	d = newDict(t, 100, Layout{K64: 1, V32: 1})
	require.NoError(t, d.Set(7, 1<<40))

	v, err := d.Get(1 << 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)
}

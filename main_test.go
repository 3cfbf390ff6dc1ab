package atomicdict

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homier/atomicdict/region"
)

var (
	dictLayout   = Layout{K64: 1, V64: 1}
	setLayout    = Layout{K64: 1}
	pairLayout   = Layout{K64: 2, V64: 1}
	narrowLayout = Layout{K32: 1, V32: 1}
)

// newRegion maps a zeroed shared region released with the test.
func newRegion(t testing.TB, size int) *region.Region {
	t.Helper()

	r, err := region.Anonymous(size)
	require.NoError(t, err)

	t.Cleanup(func() { r.Close() })

	return r
}

func newTable(t testing.TB, maxEntries int, layout Layout, opts ...Option) *Table {
	t.Helper()

	geo, err := NewGeometry(maxEntries, layout, DictLoadFactor)
	require.NoError(t, err)

	tt, err := New(newRegion(t, geo.Size()).Bytes(), geo, opts...)
	require.NoError(t, err)

	return tt
}

func constHash(h uint64) HashFunc {
	return func([]uint64) uint64 { return h }
}

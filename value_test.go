package atomicdict

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_Wide(t *testing.T) {
	tt := newTable(t, 16, dictLayout)

	s, _, err := tt.LocateOrClaim(1)
	require.NoError(t, err)

	v := s.Value(0)
	require.True(t, v.Wide())

	v.Store(10)
	require.Equal(t, uint64(10), v.Load())

	require.Equal(t, uint64(10), v.Add(5))
	require.Equal(t, uint64(15), v.Sub(3))
	require.Equal(t, uint64(12), v.Swap(0b1100))
	require.Equal(t, uint64(0b1100), v.And(0b0110))
	require.Equal(t, uint64(0b0100), v.Or(0b0001))
	require.Equal(t, uint64(0b0101), v.Xor(0b1111))
	require.Equal(t, uint64(0b1010), v.Load())

	require.Equal(t, uint64(0b1010), v.CompareAndSwap(1, 2), "a failed swap returns the observed value")
	require.Equal(t, uint64(0b1010), v.Load())
	require.Equal(t, uint64(0b1010), v.CompareAndSwap(0b1010, math.MaxUint64))
	require.Equal(t, uint64(math.MaxUint64), v.Load())
	require.Equal(t, uint64(math.MaxUint64), v.Add(1))
	require.Equal(t, uint64(0), v.Load())
}

func TestValue_Narrow(t *testing.T) {
	tt := newTable(t, 16, narrowLayout)

	s, _, err := tt.LocateOrClaim(1)
	require.NoError(t, err)

	v := s.Value(0)
	require.False(t, v.Wide())

	v.Store(math.MaxUint32)
	require.Equal(t, uint64(math.MaxUint32), v.Add(1), "returns the previous value")
	require.Equal(t, uint64(0), v.Load(), "32-bit words wrap")

	require.Equal(t, uint64(0), v.Sub(1))
	require.Equal(t, uint64(math.MaxUint32), v.Load())

	v.Store(1 << 32)
	require.Equal(t, uint64(0), v.Load(), "stores truncate to 32 bits")

	require.Equal(t, uint64(0), v.Or(0xF0))
	require.Equal(t, uint64(0xF0), v.Xor(0xFF))
	require.Equal(t, uint64(0x0F), v.And(0x03))
	require.Equal(t, uint64(0x03), v.CompareAndSwap(0x03, 7))
	require.Equal(t, uint64(7), v.Load())
	require.Equal(t, uint64(7), v.CompareAndSwap(1<<32|7, 8), "old is truncated to 32 bits")
	require.Equal(t, uint64(8), v.Load())
	require.Equal(t, uint64(8), v.CompareAndSwap(3, 9))
	require.Equal(t, uint64(8), v.Load())
}

func TestValue_NoCrossWordAtomicity(t *testing.T) {
	tt := newTable(t, 16, Layout{K64: 1, V64: 1, V32: 2})

	s, _, err := tt.LocateOrClaim(9)
	require.NoError(t, err)
	require.Equal(t, 3, s.Values())

	s.Value(0).Store(1)
	s.Value(1).Store(2)
	s.Value(2).Store(3)

	require.True(t, s.Value(0).Wide())
	require.False(t, s.Value(2).Wide())

	for i, want := range []uint64{1, 2, 3} {
		require.Equal(t, want, s.Value(i).Load())
	}

	require.Panics(t, func() { s.Value(3) })
	require.Panics(t, func() { s.Value(-1) })
}

func TestValue_ConcurrentAdd(t *testing.T) {
	const (
		workers = 8
		adds    = 10000
	)

	tt := newTable(t, 16, dictLayout)

	s, _, err := tt.LocateOrClaim(1)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		seen = make([][]uint64, workers)
	)

	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range adds {
				seen[w] = append(seen[w], s.Add(1))
			}
		}()
	}

	wg.Wait()

	require.Equal(t, uint64(workers*adds), s.Load())

	observed := make([]bool, workers*adds)
	for _, prevs := range seen {
		for _, p := range prevs {
			require.False(t, observed[p], "previous value %d observed twice", p)
			observed[p] = true
		}
	}
}

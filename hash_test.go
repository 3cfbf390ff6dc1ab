package atomicdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHash(t *testing.T) {
	t.Run("single word is fmix64", func(t *testing.T) {
		for _, k := range []uint64{1, 3, 20, 1 << 63} {
			require.Equal(t, fmix64(k), DefaultHash([]uint64{k}))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		key := []uint64{7, 11, 13}
		require.Equal(t, DefaultHash(key), DefaultHash([]uint64{7, 11, 13}))
	})

	t.Run("word order matters", func(t *testing.T) {
		assert.NotEqual(t, DefaultHash([]uint64{1, 2}), DefaultHash([]uint64{2, 1}))
		assert.NotEqual(t, DefaultHash([]uint64{1, 0}), DefaultHash([]uint64{1}))
	})
}

func TestHashSplit(t *testing.T) {
	tests := []struct {
		name       string
		hash       uint64
		mask       uint64
		wantStart  uint64
		wantStride uint64
		wantTag    uint64
	}{
		{
			name:       "Zero value",
			hash:       0,
			mask:       63,
			wantStart:  0,
			wantStride: 1,
			wantTag:    tagOccupied,
		},
		{
			name:       "Stride from high word",
			hash:       5<<32 | 7,
			mask:       63,
			wantStart:  7,
			wantStride: 5,
			wantTag:    5<<16 | tagOccupied,
		},
		{
			name:       "Even stride becomes odd",
			hash:       4<<32 | 65,
			mask:       63,
			wantStart:  1,
			wantStride: 5,
			wantTag:    4<<16 | tagOccupied,
		},
		{
			name:       "Max uint64",
			hash:       0xFFFFFFFFFFFFFFFF,
			mask:       1023,
			wantStart:  1023,
			wantStride: 1023,
			wantTag:    0xFFFFFFFFFFFE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, stride, tag := HashSplit(tt.hash, tt.mask)

			require.Equal(t, tt.wantStart, start)
			require.Equal(t, tt.wantStride, stride)
			require.Equal(t, tt.wantTag, tag)
			require.NotZero(t, tag&tagOccupied)

			claiming := claimingTag(tag)
			require.Equal(t, uint64(tagClaiming), claiming&tagStateMask)
			require.Equal(t, tag&^tagStateMask, claiming&^tagStateMask, "claiming keeps the hash bits")
		})
	}
}

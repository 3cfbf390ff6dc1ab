package atomicdict

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	// BlockSize is the size of a block in bytes: one cache line.
	BlockSize = 64

	// MinBlockCount keeps every table at least one 4 KiB page large.
	MinBlockCount = 64

	// DictLoadFactor and SetLoadFactor are the target load factors of the
	// façades. Keys are inflated by the inverse before sizing the table.
	DictLoadFactor = 0.5
	SetLoadFactor  = 0.75

	maxBlockCount = 1 << 40
)

// Layout is the number of 64-bit and 32-bit key and value words of a row.
type Layout struct {
	K64, K32 int
	V64, V32 int
}

// Keys returns the number of key words.
func (l Layout) Keys() int { return l.K64 + l.K32 }

// Values returns the number of value words.
func (l Layout) Values() int { return l.V64 + l.V32 }

// Composite reports whether keys span more than one word. Composite rows
// carry a commit tag in front of the key words.
func (l Layout) Composite() bool { return l.Keys() > 1 }

func (l Layout) wide() bool { return l.K64+l.V64 > 0 }

func (l Layout) tagBytes() int {
	switch {
	case !l.Composite():
		return 0
	case l.wide():
		return 8
	default:
		return 4
	}
}

// RowBytes returns the packed width of a row in bytes, commit tag included.
// Composite layouts spend one word of the block on the tag.
func (l Layout) RowBytes() int {
	return l.tagBytes() + 8*(l.K64+l.V64) + 4*(l.K32+l.V32)
}

// RowsPerBlock returns how many rows fit a single block, never less than one.
func (l Layout) RowsPerBlock() int {
	return max(1, BlockSize/l.RowBytes())
}

// Validate checks that the layout has a key and that a row fits a block.
func (l Layout) Validate() error {
	if l.K64 < 0 || l.K32 < 0 || l.V64 < 0 || l.V32 < 0 {
		return fmt.Errorf("%w: negative word count in %+v", ErrConfiguration, l)
	}

	if l.Keys() == 0 {
		return fmt.Errorf("%w: layout %+v has no key words", ErrConfiguration, l)
	}

	if rowBytes := l.RowBytes(); rowBytes > BlockSize {
		return fmt.Errorf("%w: row of %d bytes exceeds the %d-byte block", ErrConfiguration, rowBytes, BlockSize)
	}

	return nil
}

// Geometry is the immutable shape of a table.
type Geometry struct {
	Layout

	RowsPerBlock int
	BlockCount   int
}

// Size returns the number of bytes a region must have to back the table.
func (g Geometry) Size() int {
	return g.BlockCount * BlockSize
}

// Capacity returns the total number of rows.
func (g Geometry) Capacity() int {
	return g.BlockCount * g.RowsPerBlock
}

// NewGeometry sizes a table for maxEntries keys at the given target load
// factor. The block count is rounded up to a power of two and never drops
// below MinBlockCount.
func NewGeometry(maxEntries int, layout Layout, loadFactor float64) (Geometry, error) {
	if err := layout.Validate(); err != nil {
		return Geometry{}, err
	}

	if maxEntries < 0 {
		return Geometry{}, fmt.Errorf("%w: negative entry count %d", ErrConfiguration, maxEntries)
	}

	if !(loadFactor > 0 && loadFactor <= 1) {
		return Geometry{}, fmt.Errorf("%w: load factor %v outside (0, 1]", ErrConfiguration, loadFactor)
	}

	rows := layout.RowsPerBlock()
	inflated := math.Ceil(float64(maxEntries) / loadFactor)
	blocks := math.Ceil(inflated / float64(rows))
	if blocks > maxBlockCount {
		return Geometry{}, fmt.Errorf("%w: %d entries need more than %d blocks", ErrConfiguration, maxEntries, uint64(maxBlockCount))
	}

	return Geometry{
		Layout:       layout,
		RowsPerBlock: rows,
		BlockCount:   int(max(NextPowerOf2(uint64(blocks)), MinBlockCount)),
	}, nil
}

// GeometryForSize returns the geometry of an existing region of size bytes.
// The region must hold a power-of-two number of whole blocks.
func GeometryForSize(size int, layout Layout) (Geometry, error) {
	if err := layout.Validate(); err != nil {
		return Geometry{}, err
	}

	if size <= 0 || size%BlockSize != 0 {
		return Geometry{}, fmt.Errorf("%w: region size %d is not a positive multiple of %d", ErrConfiguration, size, BlockSize)
	}

	blocks := uint64(size / BlockSize)
	if blocks&(blocks-1) != 0 {
		return Geometry{}, fmt.Errorf("%w: region holds %d blocks, not a power of two", ErrConfiguration, blocks)
	}

	return Geometry{
		Layout:       layout,
		RowsPerBlock: layout.RowsPerBlock(),
		BlockCount:   int(blocks),
	}, nil
}

// Returns the next power of 2 for the given value `v`.
func NextPowerOf2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}

	return uint64(1) << min(bits.Len64(v-1), 63)
}

// Estimates capacity (number of rows) from the given memory size in bytes.
func CapacityFromSize(size uintptr, layout Layout) int {
	if layout.Validate() != nil {
		return 0
	}

	return int(size/BlockSize) * layout.RowsPerBlock()
}

package atomicdict

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("atomicdict")

// Programs that don't configure go-logging only hear about problems.
func init() {
	logging.SetLevel(logging.WARNING, "atomicdict")
}

type probeResult uint8

const (
	probeNext probeResult = iota
	probeMatch
	probeClaimed
	probeEmpty
)

// Table is a fixed-capacity, lock-free hash table over a caller-provided
// byte buffer. The buffer is usually a shared mapping, and any number of
// goroutines and processes may operate on tables attached to the same bytes
// as long as they agree on the geometry and the hash function.
//
// Rows are claimed exactly once and never released: there is no deletion
// and the table never grows.
type Table struct {
	buf  []byte
	base unsafe.Pointer

	geometry Geometry
	format   rowFormat
	mask     uint64

	hashFunc HashFunc
	log      *logging.Logger
}

type Option func(t *Table)

// Override default hash function.
// All processes sharing a region must use the same function.
func WithHashFunc(f HashFunc) Option {
	return func(t *Table) {
		t.hashFunc = f
	}
}

// Override the package logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Table) {
		t.log = l
	}
}

// New builds a table of the given geometry over buf. buf must be exactly
// geo.Size() bytes, 8-byte aligned and zeroed the first time it's used.
func New(buf []byte, geo Geometry, opts ...Option) (*Table, error) {
	if err := geo.Layout.Validate(); err != nil {
		return nil, err
	}

	if geo.RowsPerBlock != geo.Layout.RowsPerBlock() {
		return nil, fmt.Errorf("%w: %d rows per block, layout packs %d", ErrConfiguration, geo.RowsPerBlock, geo.Layout.RowsPerBlock())
	}

	if geo.BlockCount <= 0 || geo.BlockCount&(geo.BlockCount-1) != 0 {
		return nil, fmt.Errorf("%w: block count %d is not a power of two", ErrConfiguration, geo.BlockCount)
	}

	if len(buf) != geo.Size() {
		return nil, fmt.Errorf("%w: buffer of %d bytes, geometry needs %d", ErrConfiguration, len(buf), geo.Size())
	}

	base := unsafe.Pointer(unsafe.SliceData(buf))
	if uintptr(base)%8 != 0 {
		return nil, fmt.Errorf("%w: buffer at %p is not 8-byte aligned", ErrConfiguration, base)
	}

	t := &Table{
		buf:      buf,
		base:     base,
		geometry: geo,
		format:   newRowFormat(geo.Layout),
		mask:     uint64(geo.BlockCount - 1),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.hashFunc == nil {
		t.hashFunc = DefaultHash
	}

	if t.log == nil {
		t.log = log
	}

	t.log.Debugf("table over %d bytes: %d blocks x %d rows of %d bytes", len(buf), geo.BlockCount, geo.RowsPerBlock, geo.RowBytes())

	return t, nil
}

// Attach builds a table over an existing region, deriving the block count
// from its size.
func Attach(buf []byte, layout Layout, opts ...Option) (*Table, error) {
	geo, err := GeometryForSize(len(buf), layout)
	if err != nil {
		return nil, err
	}

	return New(buf, geo, opts...)
}

func (t *Table) Geometry() Geometry {
	return t.geometry
}

// LocateOrClaim returns the row holding key, claiming an empty row for it
// when the key isn't present yet. claimed is true only for the caller whose
// claim won; concurrent callers with the same key converge on the same row.
func (t *Table) LocateOrClaim(key ...uint64) (slot Slot, claimed bool, err error) {
	if err := t.checkKey(key); err != nil {
		return Slot{}, false, err
	}

	slot, res := t.locate(key, true)
	switch res {
	case probeMatch:
		return slot, false, nil
	case probeClaimed:
		return slot, true, nil
	}

	return Slot{}, false, fmt.Errorf("%w: %d blocks of %d rows probed", ErrTableFull, t.geometry.BlockCount, t.geometry.RowsPerBlock)
}

// Lookup returns the row holding key without claiming one.
func (t *Table) Lookup(key ...uint64) (slot Slot, found bool, err error) {
	if err := t.checkKey(key); err != nil {
		return Slot{}, false, err
	}

	slot, res := t.locate(key, false)

	return slot, res == probeMatch, nil
}

func (t *Table) checkKey(key []uint64) error {
	if len(key) != t.format.Keys() {
		return fmt.Errorf("%w: got %d words, layout has %d", ErrInvalidKey, len(key), t.format.Keys())
	}

	zero := true
	for i, w := range key {
		if i >= t.format.K64 && w > math.MaxUint32 {
			return fmt.Errorf("%w: word %d (%d) overflows 32 bits", ErrInvalidKey, i, w)
		}

		zero = zero && w == 0
	}

	if zero {
		return fmt.Errorf("%w: the all-zero key is reserved", ErrInvalidKey)
	}

	return nil
}

func (t *Table) row(block, row uint64) rowRef {
	return t.format.row(unsafe.Add(t.base, block*BlockSize), row)
}

func (t *Table) locate(key []uint64, claim bool) (Slot, probeResult) {
	var (
		start, stride, tag = HashSplit(t.hashFunc(key), t.mask)
		rows               = uint64(t.geometry.RowsPerBlock)
	)

	if t.format.tag == 4 {
		tag = uint64(uint32(tag))
	}
	claiming := claimingTag(tag)

	// An odd stride is coprime with the power-of-two block count, so
	// mask+1 steps visit every block exactly once.
	for p, block := uint64(0), start; p <= t.mask; p++ {
		for r := range rows {
			ptr := t.row(block, r)

			var res probeResult
			if t.format.tag == 0 {
				res = t.probeWord(ptr, key[0], claim)
			} else {
				res = t.probeTagged(ptr, key, tag, claiming, claim)
			}

			switch res {
			case probeNext:
				continue
			case probeEmpty:
				return Slot{}, probeEmpty
			}

			return Slot{t: t, row: ptr, index: int(block*rows + r)}, res
		}

		block = (block + stride) & t.mask
	}

	return Slot{}, probeNext
}

// probeWord handles single-word keys: the key word is the commit word and
// is claimed with one CAS from zero.
func (t *Table) probeWord(row rowRef, key uint64, claim bool) probeResult {
	w := t.format.keyWord(row, 0)

	switch cur := w.Load(); {
	case cur == key:
		return probeMatch
	case cur != 0:
		return probeNext
	case !claim:
		return probeEmpty
	}

	if w.cas(0, key) {
		return probeClaimed
	}

	// Lost the race. The winner may have claimed it for the same key.
	if w.Load() == key {
		return probeMatch
	}

	return probeNext
}

// probeTagged handles composite keys. The commit tag moves
// empty -> claiming -> occupied; key words are written while the tag says
// claiming, so a reader that sees an occupied tag sees the whole key.
//
// Only readers whose key shares the row's hash tag wait on a claiming row.
// Everyone else steps over it.
func (t *Table) probeTagged(row rowRef, key []uint64, tag, claiming uint64, claim bool) probeResult {
	tw := t.format.tagWord(row)

	for {
		switch cur := tw.Load(); {
		case cur == tagEmpty:
			if !claim {
				return probeEmpty
			}

			if !tw.cas(tagEmpty, claiming) {
				continue
			}

			t.format.storeKey(row, key)
			tw.Store(tag)

			return probeClaimed
		case cur == claiming:
			// The claimer might be writing our key: wait for the tag.
			runtime.Gosched()
		case cur != tag:
			return probeNext
		case t.format.keyEquals(row, key):
			return probeMatch
		default:
			return probeNext
		}
	}
}

// Len counts the occupied rows. The count is not a snapshot under
// concurrent claims.
func (t *Table) Len() int {
	n := 0
	for it := t.Iter(); it.next(); {
		n++
	}

	return n
}

// Stats scans the table and reports its occupancy.
func (t *Table) Stats() Stats {
	var (
		st = Stats{
			Blocks:       t.geometry.BlockCount,
			RowsPerBlock: t.geometry.RowsPerBlock,
			Capacity:     t.geometry.Capacity(),
		}
		rows = uint64(t.geometry.RowsPerBlock)
	)

	for b := range uint64(t.geometry.BlockCount) {
		used := 0
		for r := range rows {
			if t.format.occupied(t.row(b, r)) {
				used++
			}
		}

		st.Size += used
		if used == int(rows) {
			st.FullBlocks++
		}
	}

	st.LoadFactor = float64(st.Size) / float64(st.Capacity)

	return st
}

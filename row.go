package atomicdict

import "unsafe"

// Commit tag states of composite rows.
//
// The low two bits of a tag word hold the state; the rest are hash bits.
// An occupied tag has tagOccupied set. A claiming tag carries the same hash
// bits as the tag it will be published as, with tagClaiming set instead, so
// readers looking for a different key can step over a row that is being
// claimed.
const (
	tagEmpty    = 0
	tagClaiming = 1
	tagOccupied = 2

	tagStateMask = 3
)

func claimingTag(tag uint64) uint64 {
	return tag&^tagStateMask | tagClaiming
}

// rowFormat describes where the words of a row live.
//
// A block is split in two runs. The 64-bit words of every row come first,
// followed by the 32-bit words of every row:
//
//	row 0: [tag64] k64 words | v64 words
//	row 1: [tag64] k64 words | v64 words
//	...
//	row 0: [tag32] k32 words | v32 words
//	row 1: [tag32] k32 words | v32 words
//	...
//
// Blocks are 64-byte aligned and the 64-bit run is a whole number of 8-byte
// words, so every word is naturally aligned whatever the layout.
//
// The tag is present only for composite keys. It is 64-bit when the row
// has any 64-bit word and 32-bit otherwise. Single-word keys use the key
// word itself as the commit word, with zero meaning empty.
type rowFormat struct {
	Layout

	tag uintptr

	w64   uintptr // bytes of a row in the 64-bit run
	w32   uintptr // bytes of a row in the 32-bit run
	run32 uintptr // offset of the 32-bit run inside a block

	k64Off uintptr
	v64Off uintptr
	k32Off uintptr
	v32Off uintptr
}

// rowRef addresses one row: its words in the 64-bit run and in the 32-bit
// run of the block.
type rowRef struct {
	p64 unsafe.Pointer
	p32 unsafe.Pointer
}

func newRowFormat(l Layout) rowFormat {
	f := rowFormat{
		Layout: l,
		tag:    uintptr(l.tagBytes()),
	}

	var tag64, tag32 uintptr
	if f.tag == 8 {
		tag64 = 8
	} else {
		tag32 = f.tag
	}

	f.k64Off = tag64
	f.v64Off = f.k64Off + 8*uintptr(l.K64)
	f.w64 = f.v64Off + 8*uintptr(l.V64)

	f.k32Off = tag32
	f.v32Off = f.k32Off + 4*uintptr(l.K32)
	f.w32 = f.v32Off + 4*uintptr(l.V32)

	f.run32 = uintptr(l.RowsPerBlock()) * f.w64

	return f
}

func (f *rowFormat) row(block unsafe.Pointer, r uint64) rowRef {
	ref := rowRef{p64: unsafe.Add(block, uintptr(r)*f.w64)}

	// Rows without 32-bit words must not point past the block.
	if f.w32 != 0 {
		ref.p32 = unsafe.Add(block, f.run32+uintptr(r)*f.w32)
	}

	return ref
}

func (f *rowFormat) tagWord(row rowRef) Value {
	if f.tag == 8 {
		return Value{p: row.p64, wide: true}
	}

	return Value{p: row.p32}
}

func (f *rowFormat) keyWord(row rowRef, i int) Value {
	if i < f.K64 {
		return Value{p: unsafe.Add(row.p64, f.k64Off+8*uintptr(i)), wide: true}
	}

	return Value{p: unsafe.Add(row.p32, f.k32Off+4*uintptr(i-f.K64))}
}

func (f *rowFormat) valueWord(row rowRef, i int) Value {
	if i < f.V64 {
		return Value{p: unsafe.Add(row.p64, f.v64Off+8*uintptr(i)), wide: true}
	}

	return Value{p: unsafe.Add(row.p32, f.v32Off+4*uintptr(i-f.V64))}
}

// occupied reports whether the row holds a fully published key.
func (f *rowFormat) occupied(row rowRef) bool {
	if f.tag == 0 {
		return f.keyWord(row, 0).Load() != 0
	}

	return f.tagWord(row).Load()&tagOccupied != 0
}

func (f *rowFormat) loadKey(row rowRef, dst []uint64) []uint64 {
	for i := range f.Keys() {
		dst = append(dst, f.keyWord(row, i).Load())
	}

	return dst
}

func (f *rowFormat) loadValues(row rowRef, dst []uint64) []uint64 {
	for i := range f.Values() {
		dst = append(dst, f.valueWord(row, i).Load())
	}

	return dst
}

func (f *rowFormat) keyEquals(row rowRef, key []uint64) bool {
	for i, w := range key {
		if f.keyWord(row, i).Load() != w {
			return false
		}
	}

	return true
}

func (f *rowFormat) storeKey(row rowRef, key []uint64) {
	for i, w := range key {
		f.keyWord(row, i).Store(w)
	}
}

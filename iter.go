package atomicdict

import "iter"

// Iterator walks every occupied row in storage order: block by block, row
// by row. It takes no locks and gives no snapshot guarantees. Rows claimed
// behind the cursor are missed, rows ahead of it are seen, and no row is
// yielded twice.
type Iterator struct {
	t     *Table
	block uint64
	row   uint64

	slot Slot
	key  []uint64
	vals []uint64
}

// Iter returns a fresh iterator positioned before the first row.
func (t *Table) Iter() *Iterator {
	return &Iterator{
		t:    t,
		key:  make([]uint64, 0, t.format.Keys()),
		vals: make([]uint64, 0, t.format.Values()),
	}
}

// Next advances to the next occupied row. It returns false once the whole
// region has been walked.
func (it *Iterator) Next() bool {
	if !it.next() {
		return false
	}

	it.key = it.slot.Key(it.key[:0])
	it.vals = it.t.format.loadValues(it.slot.row, it.vals[:0])

	return true
}

func (it *Iterator) next() bool {
	var (
		blocks = uint64(it.t.geometry.BlockCount)
		rows   = uint64(it.t.geometry.RowsPerBlock)
	)

	for it.block < blocks {
		b, r := it.block, it.row

		it.row++
		if it.row == rows {
			it.row = 0
			it.block++
		}

		ptr := it.t.row(b, r)
		if it.t.format.occupied(ptr) {
			it.slot = Slot{t: it.t, row: ptr, index: int(b*rows + r)}
			return true
		}
	}

	return false
}

// Key returns the key words of the current row. The slice is reused by
// the next call to Next.
func (it *Iterator) Key() []uint64 {
	return it.key
}

// Values returns the value words read when the cursor reached the row.
// The slice is reused by the next call to Next.
func (it *Iterator) Values() []uint64 {
	return it.vals
}

// Slot returns the handle of the current row.
func (it *Iterator) Slot() Slot {
	return it.slot
}

// All yields the key and value words of every occupied row. Slices are
// reused between iterations; copy them to retain.
func (t *Table) All() iter.Seq2[[]uint64, []uint64] {
	return func(yield func([]uint64, []uint64) bool) {
		for it := t.Iter(); it.Next(); {
			if !yield(it.Key(), it.Values()) {
				return
			}
		}
	}
}

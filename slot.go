package atomicdict

import "fmt"

// Slot is a process-local handle to an occupied row. It stays valid for as
// long as the table's buffer is mapped; it can always be re-derived by
// locating the key again.
type Slot struct {
	t     *Table
	row   rowRef
	index int
}

// Index returns the row number in storage order.
func (s Slot) Index() int {
	return s.index
}

// Key appends the key words of the row to dst.
func (s Slot) Key(dst []uint64) []uint64 {
	return s.t.format.loadKey(s.row, dst)
}

// Values returns the number of value words of the row.
func (s Slot) Values() int {
	return s.t.format.Values()
}

// Value returns an atomic accessor for the i-th value word. 64-bit words
// come before 32-bit ones. Words are independently atomic: there is no
// atomicity across words.
func (s Slot) Value(i int) Value {
	if i < 0 || i >= s.t.format.Values() {
		panic(fmt.Sprintf("atomicdict: value word %d out of range [0, %d)", i, s.t.format.Values()))
	}

	return s.t.format.valueWord(s.row, i)
}

// Load reads the first value word.
func (s Slot) Load() uint64 {
	return s.Value(0).Load()
}

// Store writes the first value word.
func (s Slot) Store(v uint64) {
	s.Value(0).Store(v)
}

// Add fetch-adds to the first value word and returns the previous value.
func (s Slot) Add(delta uint64) uint64 {
	return s.Value(0).Add(delta)
}

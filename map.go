package atomicdict

import (
	"fmt"
	"iter"
)

// Dict is a shared dictionary with exactly one integer value per key.
// It only exposes the dictionary operations of the underlying table.
//
// A freshly claimed key reads as zero, so Get on an unknown key inserts it
// with value 0.
type Dict struct {
	table *Table
}

// DictGeometry sizes a dictionary for maxEntries keys at DictLoadFactor.
func DictGeometry(maxEntries int, layout Layout) (Geometry, error) {
	if err := checkDictLayout(layout); err != nil {
		return Geometry{}, err
	}

	return NewGeometry(maxEntries, layout, DictLoadFactor)
}

// Returns a new dictionary over buf.
func NewDict(buf []byte, geo Geometry, opts ...Option) (*Dict, error) {
	if err := checkDictLayout(geo.Layout); err != nil {
		return nil, err
	}

	t, err := New(buf, geo, opts...)
	if err != nil {
		return nil, err
	}

	return &Dict{table: t}, nil
}

// Attaches a dictionary to an existing region.
func AttachDict(buf []byte, layout Layout, opts ...Option) (*Dict, error) {
	if err := checkDictLayout(layout); err != nil {
		return nil, err
	}

	t, err := Attach(buf, layout, opts...)
	if err != nil {
		return nil, err
	}

	return &Dict{table: t}, nil
}

func checkDictLayout(l Layout) error {
	if l.Values() != 1 {
		return fmt.Errorf("%w: a dict needs exactly one value word, layout has %d", ErrConfiguration, l.Values())
	}

	return nil
}

// Slot returns the handle of key's row, claiming it if needed.
func (d *Dict) Slot(key ...uint64) (Slot, error) {
	s, _, err := d.table.LocateOrClaim(key...)
	return s, err
}

// Get returns the value of key.
func (d *Dict) Get(key ...uint64) (uint64, error) {
	s, err := d.Slot(key...)
	if err != nil {
		return 0, err
	}

	return s.Load(), nil
}

// Set stores value under key. The value comes first because keys are variadic.
func (d *Dict) Set(value uint64, key ...uint64) error {
	s, err := d.Slot(key...)
	if err != nil {
		return err
	}

	s.Store(value)

	return nil
}

// Add fetch-adds delta to the value of key and returns the previous value.
func (d *Dict) Add(delta uint64, key ...uint64) (uint64, error) {
	s, err := d.Slot(key...)
	if err != nil {
		return 0, err
	}

	return s.Add(delta), nil
}

// Lookup returns the value of key without inserting it.
func (d *Dict) Lookup(key ...uint64) (uint64, bool, error) {
	s, ok, err := d.table.Lookup(key...)
	if err != nil || !ok {
		return 0, false, err
	}

	return s.Load(), true, nil
}

// Len counts the keys.
func (d *Dict) Len() int {
	return d.table.Len()
}

func (d *Dict) Stats() Stats {
	return d.table.Stats()
}

func (d *Dict) Geometry() Geometry {
	return d.table.Geometry()
}

// All yields every key with its value in storage order. The key slice is
// reused between iterations.
func (d *Dict) All() iter.Seq2[[]uint64, uint64] {
	return func(yield func([]uint64, uint64) bool) {
		for key, vals := range d.table.All() {
			if !yield(key, vals[0]) {
				return
			}
		}
	}
}

package atomicdict

import (
	"fmt"
	"iter"
)

// Set is a shared set of integer keys: a table without value words.
type Set struct {
	table *Table
}

// SetGeometry sizes a set for maxEntries keys at SetLoadFactor.
func SetGeometry(maxEntries int, layout Layout) (Geometry, error) {
	if err := checkSetLayout(layout); err != nil {
		return Geometry{}, err
	}

	return NewGeometry(maxEntries, layout, SetLoadFactor)
}

// Returns a new set over buf.
func NewSet(buf []byte, geo Geometry, opts ...Option) (*Set, error) {
	if err := checkSetLayout(geo.Layout); err != nil {
		return nil, err
	}

	t, err := New(buf, geo, opts...)
	if err != nil {
		return nil, err
	}

	return &Set{table: t}, nil
}

// Attaches a set to an existing region.
func AttachSet(buf []byte, layout Layout, opts ...Option) (*Set, error) {
	if err := checkSetLayout(layout); err != nil {
		return nil, err
	}

	t, err := Attach(buf, layout, opts...)
	if err != nil {
		return nil, err
	}

	return &Set{table: t}, nil
}

func checkSetLayout(l Layout) error {
	if l.Values() != 0 {
		return fmt.Errorf("%w: a set has no value words, layout has %d", ErrConfiguration, l.Values())
	}

	return nil
}

// Add puts a key in the set.
// Returns true if and only if this call inserted the key; false means it
// was already present.
func (s *Set) Add(key ...uint64) (bool, error) {
	_, claimed, err := s.table.LocateOrClaim(key...)
	return claimed, err
}

// Checks whether a key is in the set.
func (s *Set) Has(key ...uint64) (bool, error) {
	_, ok, err := s.table.Lookup(key...)
	return ok, err
}

// Len counts the keys.
func (s *Set) Len() int {
	return s.table.Len()
}

func (s *Set) Stats() Stats {
	return s.table.Stats()
}

func (s *Set) Geometry() Geometry {
	return s.table.Geometry()
}

// All yields every key in storage order. The slice is reused between
// iterations.
func (s *Set) All() iter.Seq[[]uint64] {
	return func(yield func([]uint64) bool) {
		for key := range s.table.All() {
			if !yield(key) {
				return
			}
		}
	}
}

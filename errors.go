package atomicdict

import "errors"

var (
	// ErrConfiguration is returned when a layout, geometry or buffer can't
	// back a table.
	ErrConfiguration = errors.New("atomicdict: invalid configuration")

	// ErrInvalidKey is returned for keys of the wrong arity, keys with a
	// 32-bit word out of range and the reserved all-zero key.
	ErrInvalidKey = errors.New("atomicdict: invalid key")

	// ErrTableFull is returned when the probe sequence visited every block
	// without finding the key or an empty row. Tables never grow.
	ErrTableFull = errors.New("atomicdict: table full")
)

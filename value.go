package atomicdict

import (
	"sync/atomic"
	"unsafe"
)

// Value is an atomic accessor bound to one 64-bit or 32-bit word of a row.
// Every operation is a single hardware atomic on that word; operations on
// 32-bit words truncate their arguments and wrap modulo 2^32.
type Value struct {
	p    unsafe.Pointer
	wide bool
}

// Wide reports whether the word is 64 bits wide.
func (v Value) Wide() bool {
	return v.wide
}

// Load atomically reads the word.
func (v Value) Load() uint64 {
	if v.wide {
		return atomic.LoadUint64((*uint64)(v.p))
	}

	return uint64(atomic.LoadUint32((*uint32)(v.p)))
}

// Store atomically writes the word.
func (v Value) Store(x uint64) {
	if v.wide {
		atomic.StoreUint64((*uint64)(v.p), x)
		return
	}

	atomic.StoreUint32((*uint32)(v.p), uint32(x))
}

// Swap stores x and returns the previous value.
func (v Value) Swap(x uint64) uint64 {
	if v.wide {
		return atomic.SwapUint64((*uint64)(v.p), x)
	}

	return uint64(atomic.SwapUint32((*uint32)(v.p), uint32(x)))
}

// Add is a fetch-and-add: it adds delta and returns the previous value.
func (v Value) Add(delta uint64) uint64 {
	if v.wide {
		return atomic.AddUint64((*uint64)(v.p), delta) - delta
	}

	d := uint32(delta)
	return uint64(atomic.AddUint32((*uint32)(v.p), d) - d)
}

// Sub subtracts delta and returns the previous value.
func (v Value) Sub(delta uint64) uint64 {
	return v.Add(-delta)
}

// And applies a bitwise and and returns the previous value.
func (v Value) And(mask uint64) uint64 {
	if v.wide {
		return atomic.AndUint64((*uint64)(v.p), mask)
	}

	return uint64(atomic.AndUint32((*uint32)(v.p), uint32(mask)))
}

// Or applies a bitwise or and returns the previous value.
func (v Value) Or(mask uint64) uint64 {
	if v.wide {
		return atomic.OrUint64((*uint64)(v.p), mask)
	}

	return uint64(atomic.OrUint32((*uint32)(v.p), uint32(mask)))
}

// Xor applies a bitwise xor and returns the previous value.
func (v Value) Xor(mask uint64) uint64 {
	for {
		old := v.Load()
		if v.cas(old, old^mask) {
			return old
		}
	}
}

// CompareAndSwap stores new if the word holds old. It returns the value
// observed in the word: old when the swap happened, anything else when it
// didn't. For 32-bit words old and new are truncated first.
func (v Value) CompareAndSwap(old, new uint64) uint64 {
	if !v.wide {
		old, new = uint64(uint32(old)), uint64(uint32(new))
	}

	for {
		cur := v.Load()
		if cur != old {
			return cur
		}

		if v.cas(old, new) {
			return old
		}
	}
}

func (v Value) cas(old, new uint64) bool {
	if v.wide {
		return atomic.CompareAndSwapUint64((*uint64)(v.p), old, new)
	}

	return atomic.CompareAndSwapUint32((*uint32)(v.p), uint32(old), uint32(new))
}

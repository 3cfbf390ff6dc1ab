package atomicdict

import "math/bits"

// HashFunc maps a key tuple to a 64-bit hash.
// Every process attached to the same region must use the same function,
// so it has to be deterministic: no per-process seeds.
type HashFunc func(key []uint64) uint64

const (
	prime64_1 = 0x9E3779B185EBCA87
	prime64_2 = 0xC2B2AE3D27D4EB4F
)

// fmix64 is the MurmurHash3 64-bit finalizer.
func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xFF51AFD7ED558CCD
	k ^= k >> 33
	k *= 0xC4CEB9FE1A85EC53
	k ^= k >> 33

	return k
}

// DefaultHash hashes single-word keys with fmix64 and folds every further
// word into the running hash before finalizing again.
func DefaultHash(key []uint64) uint64 {
	if len(key) == 0 {
		return 0
	}

	h := fmix64(key[0])
	for _, w := range key[1:] {
		h ^= bits.RotateLeft64(w*prime64_2, 31) * prime64_1
		h = fmix64(h)
	}

	return h
}

// HashSplit splits a hash into the starting block, the odd probe stride and
// the commit tag used by composite keys.
func HashSplit(hash uint64, mask uint64) (start uint64, stride uint64, tag uint64) {
	start = hash & mask
	stride = ((hash >> 32) & mask) | 1
	// The low two bits hold the row state.
	tag = (hash>>16)&^tagStateMask | tagOccupied

	return start, stride, tag
}

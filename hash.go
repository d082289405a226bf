package mrc

import "math/bits"

// wyhash constants for fast string hashing. Not load-bearing here (keys
// in this package are bare uint64), kept for hashing string trace
// identifiers in tooling (see cmd/tracegen) where a human-readable key
// space is convenient.
const (
	wyp0 = 0xa0761d6478bd642f
	wyp1 = 0xe7037ed1a0b428db
)

// HashString hashes a string using wyhash, turning a human-readable key
// name into the uint64 key space this package's estimators operate on.
// cmd/tracegen's --key-names mode uses this to build traces from named
// keys instead of synthetic integers.
func HashString(s string) uint64 {
	return hashString(s)
}

// hashString is the wyhash implementation behind HashString.
func hashString(s string) uint64 {
	n := len(s)
	if n == 0 {
		return 0
	}

	var a, b uint64
	switch {
	case n >= 8:
		a = uint64(s[0]) | uint64(s[1])<<8 | uint64(s[2])<<16 | uint64(s[3])<<24 |
			uint64(s[4])<<32 | uint64(s[5])<<40 | uint64(s[6])<<48 | uint64(s[7])<<56
		b = uint64(s[n-8]) | uint64(s[n-7])<<8 | uint64(s[n-6])<<16 | uint64(s[n-5])<<24 |
			uint64(s[n-4])<<32 | uint64(s[n-3])<<40 | uint64(s[n-2])<<48 | uint64(s[n-1])<<56
	case n >= 4:
		a = uint64(s[0]) | uint64(s[1])<<8 | uint64(s[2])<<16 | uint64(s[3])<<24
		b = uint64(s[n-4]) | uint64(s[n-3])<<8 | uint64(s[n-2])<<16 | uint64(s[n-1])<<24
	default:
		a = uint64(s[0])<<16 | uint64(s[n>>1])<<8 | uint64(s[n-1])
		b = 0
	}

	hi, lo := bits.Mul64(a^wyp0, b^uint64(n)^wyp1)
	return hi ^ lo
}

// hashUint64 is the primary admission hash used by the SHARDS family and
// the Evicting Map's admission test. It is a fixed-point multiplicative
// mix (the MurmurHash3 fmix64 finalizer): deterministic, good avalanche, no
// third-party dependency required (see DESIGN.md).
func hashUint64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// hash2Uint64 is a second, independent mix used by the Evicting Map to
// pick a slot: hash2(key) mod C. It is the splitmix64 mix; using a
// distinct constant set
// decorrelates slot selection from the admission decision made by
// hashUint64, so that keys admitted at similar thresholds don't cluster in
// the same slots.
func hash2Uint64(k uint64) uint64 {
	k += 0x9e3779b97f4a7c15
	k ^= k >> 30
	k *= 0xbf58476d1ce4e5b9
	k ^= k >> 27
	k *= 0x94d049bb133111eb
	k ^= k >> 31
	return k
}

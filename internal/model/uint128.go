package model

import (
	"math/big"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer, wide enough for every packet
// field domain including IPv6 addresses.
type Uint128 struct {
	Hi, Lo uint64
}

// U128 returns the Uint128 holding a 64-bit value.
func U128(lo uint64) Uint128 { return Uint128{Lo: lo} }

// MaxForWidth returns 2^width - 1.
func MaxForWidth(width int) Uint128 {
	switch {
	case width <= 0:
		return Uint128{}
	case width < 64:
		return Uint128{Lo: 1<<uint(width) - 1}
	case width == 64:
		return Uint128{Lo: ^uint64(0)}
	case width < 128:
		return Uint128{Hi: 1<<uint(width-64) - 1, Lo: ^uint64(0)}
	default:
		return Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
	}
}

// Cmp returns -1, 0 or 1 comparing a with b.
func (a Uint128) Cmp(b Uint128) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether a is zero.
func (a Uint128) IsZero() bool { return a.Hi == 0 && a.Lo == 0 }

// Sub returns a - b; the caller guarantees a >= b.
func (a Uint128) Sub(b Uint128) Uint128 {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, _ := bits.Sub64(a.Hi, b.Hi, borrow)
	return Uint128{Hi: hi, Lo: lo}
}

// Add returns a + b, wrapping on overflow.
func (a Uint128) Add(b Uint128) Uint128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, _ := bits.Add64(a.Hi, b.Hi, carry)
	return Uint128{Hi: hi, Lo: lo}
}

// And returns the bitwise conjunction of a and b.
func (a Uint128) And(b Uint128) Uint128 {
	return Uint128{Hi: a.Hi & b.Hi, Lo: a.Lo & b.Lo}
}

// Bit returns bit i, bit 0 being the least significant.
func (a Uint128) Bit(i int) bool {
	if i < 64 {
		return a.Lo>>uint(i)&1 == 1
	}
	return a.Hi>>uint(i-64)&1 == 1
}

// OnesCount returns the number of set bits.
func (a Uint128) OnesCount() int {
	return bits.OnesCount64(a.Hi) + bits.OnesCount64(a.Lo)
}

// Bytes16 returns the big-endian 16-byte representation.
func (a Uint128) Bytes16() [16]byte {
	var out [16]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(a.Hi >> uint(56-8*i))
		out[8+i] = byte(a.Lo >> uint(56-8*i))
	}
	return out
}

// FromBytes16 builds a Uint128 from a big-endian 16-byte slice.
func FromBytes16(b [16]byte) Uint128 {
	var a Uint128
	for i := 0; i < 8; i++ {
		a.Hi = a.Hi<<8 | uint64(b[i])
		a.Lo = a.Lo<<8 | uint64(b[8+i])
	}
	return a
}

// String returns the decimal representation.
func (a Uint128) String() string {
	var n big.Int
	n.SetUint64(a.Hi)
	n.Lsh(&n, 64)
	n.Or(&n, new(big.Int).SetUint64(a.Lo))
	return n.String()
}

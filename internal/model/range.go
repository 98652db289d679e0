package model

import (
	"fmt"
	"net/netip"
)

// RangeFormat selects how a range prints.
type RangeFormat int

const (
	// FormatInt prints plain integers: "5" or "5-9".
	FormatInt RangeFormat = iota
	// FormatIPv4 prints dotted quads, CIDR, "+n" or "a-b" forms.
	FormatIPv4
	// FormatIPv6 prints RFC 5952 text, CIDR, "+n" or "a-b" forms.
	FormatIPv6
	// FormatIPv6As4 prints an IPv4-mapped range in the 128-bit domain
	// using the IPv4 forms.
	FormatIPv6As4
)

// Range is an inclusive integer interval [lo, hi] over a width-bit
// domain. Invariant: 0 <= lo <= hi <= 2^width - 1.
type Range struct {
	width  int
	lo, hi Uint128
	format RangeFormat
}

// NewRange builds a plain integer range. Bounds outside the domain or an
// inverted interval are programming errors.
func NewRange(width int, lo, hi Uint128) Range {
	if width <= 0 || width > 128 {
		panic(fmt.Sprintf("model: invalid range width %d", width))
	}
	if lo.Cmp(hi) > 0 || hi.Cmp(MaxForWidth(width)) > 0 {
		panic(fmt.Sprintf("model: invalid range bounds [%s, %s] for width %d", lo, hi, width))
	}
	return Range{width: width, lo: lo, hi: hi}
}

// NewFormattedRange builds a range carrying a print format.
func NewFormattedRange(width int, lo, hi Uint128, format RangeFormat) Range {
	r := NewRange(width, lo, hi)
	r.format = format
	return r
}

// Singleton builds the one-value range [v, v].
func Singleton(width int, v Uint128) Range { return NewRange(width, v, v) }

// Width returns the bit width of the range's domain.
func (r Range) Width() int { return r.width }

// Lo returns the lower bound.
func (r Range) Lo() Uint128 { return r.lo }

// Hi returns the upper bound.
func (r Range) Hi() Uint128 { return r.hi }

// Format returns the print format.
func (r Range) Format() RangeFormat { return r.format }

// IsSingleton reports whether the bounds are equal.
func (r Range) IsSingleton() bool { return r.lo.Cmp(r.hi) == 0 }

// IsFull reports whether the range spans the whole domain.
func (r Range) IsFull() bool {
	return r.lo.IsZero() && r.hi.Cmp(MaxForWidth(r.width)) == 0
}

// IsPowerOfTwo reports whether hi - lo + 1 is a power of two. The
// computation stays on hi - lo so the full-domain range does not
// overflow: a difference of all-ones is 2^width - 1 values plus one.
func (r Range) IsPowerOfTwo() bool {
	diff := r.hi.Sub(r.lo)
	if diff.IsZero() {
		return true
	}
	if diff.Cmp(Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}) == 0 {
		return true
	}
	one := U128(1)
	return diff.Add(one).And(diff).IsZero()
}

// Equal reports whether two ranges have the same width and bounds.
func (r Range) Equal(other Range) bool {
	return r.width == other.width && r.lo.Cmp(other.lo) == 0 && r.hi.Cmp(other.hi) == 0
}

// Clone returns a copy of the range. Ranges are value types; the method
// exists for symmetry with group and predicate cloning.
func (r Range) Clone() Range { return r }

func (r Range) String() string {
	switch r.format {
	case FormatIPv4:
		return formatAddrRange(r, 4)
	case FormatIPv6:
		return formatAddrRange(r, 6)
	case FormatIPv6As4:
		v4 := NewFormattedRange(32, U128(r.lo.Lo&0xffffffff), U128(r.hi.Lo&0xffffffff), FormatIPv4)
		return v4.String()
	default:
		if r.IsSingleton() {
			return r.lo.String()
		}
		return r.lo.String() + "-" + r.hi.String()
	}
}

// formatAddrRange renders an address interval as a single address, a
// CIDR block, "addr+n" for short ranges, or "lo-hi".
func formatAddrRange(r Range, version int) string {
	lo := addrString(r.lo, version)
	if r.IsSingleton() {
		return lo
	}
	diff := r.hi.Sub(r.lo)
	if r.IsPowerOfTwo() && r.lo.And(diff).IsZero() {
		bits := 32
		if version == 6 {
			bits = 128
		}
		return fmt.Sprintf("%s/%d", lo, bits-diff.OnesCount())
	}
	if diff.Hi == 0 && diff.Lo < 1024 {
		return fmt.Sprintf("%s+%d", lo, diff.Lo)
	}
	return lo + "-" + addrString(r.hi, version)
}

func addrString(v Uint128, version int) string {
	if version == 4 {
		b := [4]byte{byte(v.Lo >> 24), byte(v.Lo >> 16), byte(v.Lo >> 8), byte(v.Lo)}
		return netip.AddrFrom4(b).String()
	}
	return netip.AddrFrom16(v.Bytes16()).String()
}

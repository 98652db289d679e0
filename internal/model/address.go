package model

import (
	"net/netip"
	"strings"

	"grimm.is/palisade/internal/bdd"
)

// AddressKind records the syntactic form an address atom was built from.
type AddressKind int

const (
	AddressSingle AddressKind = iota
	AddressSubnet
	AddressRange
)

// ipv4MappedBase is ::ffff:0:0, the start of the IPv4-mapped block used
// when IPv4 addresses are encoded in the 128-bit domains.
var ipv4MappedBase = Uint128{Lo: 0xffff_0000_0000}

// SrcAddress constrains the source-address coordinate of a packet. The
// atom lives either in the 32-bit or in the 128-bit source domain,
// depending on the firewall's address model.
type SrcAddress struct {
	name  string
	kind  AddressKind
	value Mvalue
	any   bool
}

// NewSrcAddress builds a source address atom over dt, which must be one
// of the two source address domains.
func NewSrcAddress(doms *Domains, name string, kind AddressKind, dt DomainType, rng Range) *SrcAddress {
	if dt != SrcAddress4Domain && dt != SrcAddress6Domain {
		panic("model: not a source address domain")
	}
	return &SrcAddress{name: name, kind: kind, value: NewMvalue(doms, dt, rng)}
}

// ParseSrcAddress parses an address literal into a source atom encoded
// for the given address model.
func ParseSrcAddress(doms *Domains, ipModel IPModel, name, literal string, strict bool) (*SrcAddress, error) {
	kind, dt, rng, err := parseAddressLiteral(doms, ipModel, literal, strict, true)
	if err != nil {
		return nil, err
	}
	return NewSrcAddress(doms, name, kind, dt, rng), nil
}

// AnySrcAddress returns the sentinel spanning every source address.
func AnySrcAddress(doms *Domains, ipModel IPModel) *SrcAddress {
	dt, rng := anyAddressRange(doms, ipModel, true)
	return &SrcAddress{name: AnyName, kind: AddressRange, value: NewMvalue(doms, dt, rng), any: true}
}

// Name returns the address name.
func (a *SrcAddress) Name() string { return a.name }

// Kind returns the syntactic form.
func (a *SrcAddress) Kind() AddressKind { return a.kind }

// Domain returns the address domain the atom is encoded in.
func (a *SrcAddress) Domain() DomainType { return a.value.Domain() }

// Interval returns the numeric interval.
func (a *SrcAddress) Interval() Range { return a.value.Range() }

// IsAny reports whether this is the sentinel address.
func (a *SrcAddress) IsAny() bool { return a.any }

// MakeBdd compiles the address condition.
func (a *SrcAddress) MakeBdd() bdd.Node {
	if a.any {
		return a.value.doms.Engine().True()
	}
	return a.value.MakeBdd()
}

func (a *SrcAddress) String() string {
	if a.any {
		return AnyName
	}
	return a.value.String()
}

// DstAddress constrains the destination-address coordinate of a packet.
type DstAddress struct {
	name  string
	kind  AddressKind
	value Mvalue
	any   bool
}

// NewDstAddress builds a destination address atom over dt, which must be
// one of the two destination address domains.
func NewDstAddress(doms *Domains, name string, kind AddressKind, dt DomainType, rng Range) *DstAddress {
	if dt != DstAddress4Domain && dt != DstAddress6Domain {
		panic("model: not a destination address domain")
	}
	return &DstAddress{name: name, kind: kind, value: NewMvalue(doms, dt, rng)}
}

// ParseDstAddress parses an address literal into a destination atom.
func ParseDstAddress(doms *Domains, ipModel IPModel, name, literal string, strict bool) (*DstAddress, error) {
	kind, dt, rng, err := parseAddressLiteral(doms, ipModel, literal, strict, false)
	if err != nil {
		return nil, err
	}
	return NewDstAddress(doms, name, kind, dt, rng), nil
}

// AnyDstAddress returns the sentinel spanning every destination address.
func AnyDstAddress(doms *Domains, ipModel IPModel) *DstAddress {
	dt, rng := anyAddressRange(doms, ipModel, false)
	return &DstAddress{name: AnyName, kind: AddressRange, value: NewMvalue(doms, dt, rng), any: true}
}

// Name returns the address name.
func (a *DstAddress) Name() string { return a.name }

// Kind returns the syntactic form.
func (a *DstAddress) Kind() AddressKind { return a.kind }

// Domain returns the address domain the atom is encoded in.
func (a *DstAddress) Domain() DomainType { return a.value.Domain() }

// Interval returns the numeric interval.
func (a *DstAddress) Interval() Range { return a.value.Range() }

// IsAny reports whether this is the sentinel address.
func (a *DstAddress) IsAny() bool { return a.any }

// MakeBdd compiles the address condition.
func (a *DstAddress) MakeBdd() bdd.Node {
	if a.any {
		return a.value.doms.Engine().True()
	}
	return a.value.MakeBdd()
}

func (a *DstAddress) String() string {
	if a.any {
		return AnyName
	}
	return a.value.String()
}

// SrcAddressGroup and DstAddressGroup collect the addresses a rule names.
type (
	SrcAddressGroup = Group[*SrcAddress]
	DstAddressGroup = Group[*DstAddress]
)

func anyAddressRange(doms *Domains, ipModel IPModel, src bool) (DomainType, Range) {
	var dt DomainType
	switch {
	case ipModel == IP4Model && src:
		dt = SrcAddress4Domain
	case ipModel == IP4Model:
		dt = DstAddress4Domain
	case src:
		dt = SrcAddress6Domain
	default:
		dt = DstAddress6Domain
	}
	return dt, doms.FullRange(dt)
}

// parseAddressLiteral accepts a single address ("192.0.2.1"), a subnet
// ("192.0.2.0/24", "192.0.2.0/255.255.255.0"), or a range
// ("192.0.2.10-192.0.2.40"), IPv4 or IPv6. Strict parsing rejects a
// subnet whose host bits are set; loose parsing masks them off.
func parseAddressLiteral(doms *Domains, ipModel IPModel, literal string, strict, src bool) (AddressKind, DomainType, Range, error) {
	fail := func(reason string) (AddressKind, DomainType, Range, error) {
		return 0, 0, Range{}, &InvalidAddressError{Token: literal, Reason: reason}
	}

	if lo, hi, ok := strings.Cut(literal, "-"); ok && !strings.Contains(literal, "/") {
		start, err := netip.ParseAddr(strings.TrimSpace(lo))
		if err != nil {
			return fail("bad range start")
		}
		end, err := netip.ParseAddr(strings.TrimSpace(hi))
		if err != nil {
			return fail("bad range end")
		}
		if start.Is4() != end.Is4() {
			return fail("mixed address versions in range")
		}
		if end.Less(start) {
			return fail("range bounds are inverted")
		}
		return encodeAddress(doms, ipModel, literal, AddressRange, start, end, src)
	}

	if addr, mask, ok := strings.Cut(literal, "/"); ok {
		base, err := netip.ParseAddr(strings.TrimSpace(addr))
		if err != nil {
			return fail("bad address")
		}
		bits := -1
		if m, err := netip.ParseAddr(strings.TrimSpace(mask)); err == nil && m.Is4() && base.Is4() {
			// Dotted netmask form; the mask must be contiguous ones.
			ones, contiguous := maskBits(be32(m.As4()))
			if !contiguous {
				return fail("non-contiguous netmask")
			}
			bits = ones
		} else {
			p, err := netip.ParsePrefix(literal)
			if err != nil {
				return fail("bad prefix")
			}
			base = p.Addr()
			bits = p.Bits()
		}
		p := netip.PrefixFrom(base, bits)
		if !p.IsValid() {
			return fail("bad prefix length")
		}
		if p.Masked().Addr() != base {
			if strict {
				return fail("host bits set in subnet")
			}
			base = p.Masked().Addr()
		}
		kind := AddressSubnet
		if (base.Is4() && bits == 32) || (!base.Is4() && bits == 128) {
			kind = AddressSingle
		}
		start, end := prefixBounds(netip.PrefixFrom(base, bits))
		return encodeAddress(doms, ipModel, literal, kind, start, end, src)
	}

	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return fail("")
	}
	return encodeAddress(doms, ipModel, literal, AddressSingle, addr, addr, src)
}

func encodeAddress(doms *Domains, ipModel IPModel, literal string, kind AddressKind, start, end netip.Addr, src bool) (AddressKind, DomainType, Range, error) {
	is4 := start.Is4() || start.Is4In6()
	switch {
	case is4 && ipModel == IP6Model:
		return 0, 0, Range{}, &InvalidAddressError{Token: literal, Reason: "IPv4 address in an IPv6-only model"}
	case !is4 && ipModel == IP4Model:
		return 0, 0, Range{}, &InvalidAddressError{Token: literal, Reason: "IPv6 address in an IPv4-only model"}
	}

	if is4 && ipModel == IP4Model {
		dt := SrcAddress4Domain
		if !src {
			dt = DstAddress4Domain
		}
		lo := U128(uint64(be32(start.As4())))
		hi := U128(uint64(be32(end.As4())))
		return kind, dt, NewFormattedRange(32, lo, hi, FormatIPv4), nil
	}

	dt := SrcAddress6Domain
	if !src {
		dt = DstAddress6Domain
	}
	format := FormatIPv6
	var lo, hi Uint128
	if is4 {
		// IPv4 in the combined model: encode into the mapped block and
		// keep printing in IPv4 forms.
		lo = ipv4MappedBase.Add(U128(uint64(be32(start.As4()))))
		hi = ipv4MappedBase.Add(U128(uint64(be32(end.As4()))))
		format = FormatIPv6As4
	} else {
		lo = FromBytes16(start.As16())
		hi = FromBytes16(end.As16())
	}
	return kind, dt, NewFormattedRange(128, lo, hi, format), nil
}

func prefixBounds(p netip.Prefix) (netip.Addr, netip.Addr) {
	base := p.Masked().Addr()
	if base.Is4() {
		v := uint64(be32(base.As4()))
		size := uint64(1) << uint(32-p.Bits())
		var last [4]byte
		putBE32(&last, uint32(v+size-1))
		return base, netip.AddrFrom4(last)
	}
	b := base.As16()
	for i := p.Bits(); i < 128; i++ {
		b[i/8] |= 1 << uint(7-i%8)
	}
	return base, netip.AddrFrom16(b)
}

func be32(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBE32(b *[4]byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

// maskBits converts a dotted netmask to a prefix length, reporting
// whether the mask was contiguous.
func maskBits(mask uint32) (int, bool) {
	ones := 0
	seenZero := false
	for i := 31; i >= 0; i-- {
		if mask>>uint(i)&1 == 1 {
			if seenZero {
				return 0, false
			}
			ones++
		} else {
			seenZero = true
		}
	}
	return ones, true
}

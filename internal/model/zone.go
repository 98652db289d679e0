package model

import "grimm.is/palisade/internal/bdd"

// AnyName is the name of every "unconstrained axis" sentinel atom.
const AnyName = "any"

// SrcZone constrains the source-zone coordinate of a packet.
type SrcZone struct {
	name  string
	value Mvalue
	any   bool
}

// NewSrcZone builds a source zone over a single registry id.
func NewSrcZone(doms *Domains, name string, id uint16) *SrcZone {
	return NewSrcZoneRange(doms, name, Singleton(doms.Width(SrcZoneDomain), U128(uint64(id))))
}

// NewSrcZoneRange builds a source zone over an id interval; the symmetry
// checker uses it to cross destination zones into the source domain.
func NewSrcZoneRange(doms *Domains, name string, rng Range) *SrcZone {
	return &SrcZone{name: name, value: NewMvalue(doms, SrcZoneDomain, rng)}
}

// AnySrcZone returns the sentinel spanning every source zone.
func AnySrcZone(doms *Domains) *SrcZone {
	return &SrcZone{
		name:  AnyName,
		value: NewMvalue(doms, SrcZoneDomain, doms.FullRange(SrcZoneDomain)),
		any:   true,
	}
}

// Name returns the zone name.
func (z *SrcZone) Name() string { return z.name }

// Interval returns the id interval.
func (z *SrcZone) Interval() Range { return z.value.Range() }

// IsAny reports whether this is the sentinel zone.
func (z *SrcZone) IsAny() bool { return z.any }

// MakeBdd compiles the zone condition.
func (z *SrcZone) MakeBdd() bdd.Node {
	if z.any {
		return z.value.doms.Engine().True()
	}
	return z.value.MakeBdd()
}

func (z *SrcZone) String() string {
	if z.any {
		return AnyName
	}
	return z.value.String()
}

// DstZone constrains the destination-zone coordinate of a packet.
type DstZone struct {
	name  string
	value Mvalue
	any   bool
}

// NewDstZone builds a destination zone over a single registry id.
func NewDstZone(doms *Domains, name string, id uint16) *DstZone {
	return NewDstZoneRange(doms, name, Singleton(doms.Width(DstZoneDomain), U128(uint64(id))))
}

// NewDstZoneRange builds a destination zone over an id interval.
func NewDstZoneRange(doms *Domains, name string, rng Range) *DstZone {
	return &DstZone{name: name, value: NewMvalue(doms, DstZoneDomain, rng)}
}

// AnyDstZone returns the sentinel spanning every destination zone.
func AnyDstZone(doms *Domains) *DstZone {
	return &DstZone{
		name:  AnyName,
		value: NewMvalue(doms, DstZoneDomain, doms.FullRange(DstZoneDomain)),
		any:   true,
	}
}

// Name returns the zone name.
func (z *DstZone) Name() string { return z.name }

// Interval returns the id interval.
func (z *DstZone) Interval() Range { return z.value.Range() }

// IsAny reports whether this is the sentinel zone.
func (z *DstZone) IsAny() bool { return z.any }

// MakeBdd compiles the zone condition.
func (z *DstZone) MakeBdd() bdd.Node {
	if z.any {
		return z.value.doms.Engine().True()
	}
	return z.value.MakeBdd()
}

func (z *DstZone) String() string {
	if z.any {
		return AnyName
	}
	return z.value.String()
}

// SrcZoneGroup and DstZoneGroup collect the zones a rule names.
type (
	SrcZoneGroup = Group[*SrcZone]
	DstZoneGroup = Group[*DstZone]
)

// ZonePair is an optional (source, destination) zone filter.
type ZonePair struct {
	Src *SrcZone
	Dst *DstZone
}

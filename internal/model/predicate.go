package model

import "grimm.is/palisade/internal/bdd"

// BddOptions selects factors of a predicate's condition; the symmetry
// checker and the packet tester compile partial conditions covering only
// the coordinates the caller supplied.
type BddOptions uint8

const (
	BddSrcZone BddOptions = 1 << iota
	BddDstZone
	BddApplication
	BddUser
	BddURL
)

// Contains reports whether every option in o is set.
func (b BddOptions) Contains(o BddOptions) bool { return b&o == o }

// Sources bundles the source half of a predicate.
type Sources struct {
	Zones     *SrcZoneGroup
	Addresses *SrcAddressGroup
	Negate    bool
}

// Destinations bundles the destination half of a predicate.
type Destinations struct {
	Zones     *DstZoneGroup
	Addresses *DstAddressGroup
	Negate    bool
}

// Predicate is the condition a rule imposes on a packet: the
// conjunction of its zone, address, service, application, user and URL
// factors, with the two address factors optionally complemented.
type Predicate struct {
	doms *Domains
	opts *ModelOptions

	srcZones *SrcZoneGroup
	dstZones *DstZoneGroup
	srcAddrs *SrcAddressGroup
	negSrc   bool
	dstAddrs *DstAddressGroup
	negDst   bool
	services *ServiceGroup
	apps     *ApplicationGroup
	users    *UserGroup
	urls     *URLGroup

	any bool
}

// NewPredicate assembles a predicate from its groups. The predicate
// owns the groups it encloses.
func NewPredicate(doms *Domains, opts *ModelOptions, src Sources, dst Destinations,
	services *ServiceGroup, apps *ApplicationGroup, users *UserGroup, urls *URLGroup) *Predicate {
	return &Predicate{
		doms:     doms,
		opts:     opts,
		srcZones: src.Zones,
		dstZones: dst.Zones,
		srcAddrs: src.Addresses,
		negSrc:   src.Negate,
		dstAddrs: dst.Addresses,
		negDst:   dst.Negate,
		services: services,
		apps:     apps,
		users:    users,
		urls:     urls,
	}
}

// AnyPredicate returns the predicate matching every packet.
func AnyPredicate(doms *Domains, ipModel IPModel) *Predicate {
	p := NewPredicate(doms, EmptyOptions(),
		Sources{
			Zones:     NewGroup("", AnySrcZone(doms)),
			Addresses: NewGroup("", AnySrcAddress(doms, ipModel)),
		},
		Destinations{
			Zones:     NewGroup("", AnyDstZone(doms)),
			Addresses: NewGroup("", AnyDstAddress(doms, ipModel)),
		},
		NewServiceGroup("", AnyService(doms)),
		NewApplicationGroup("", AnyApplication(doms)),
		NewGroup("", AnyUser(doms)),
		NewGroup("", AnyURL(doms)),
	)
	p.any = true
	return p
}

// SrcZones returns the source-zone factor.
func (p *Predicate) SrcZones() *SrcZoneGroup { return p.srcZones }

// DstZones returns the destination-zone factor.
func (p *Predicate) DstZones() *DstZoneGroup { return p.dstZones }

// SrcAddresses returns the source-address factor.
func (p *Predicate) SrcAddresses() *SrcAddressGroup { return p.srcAddrs }

// NegateSrcAddresses reports whether the source addresses are
// complemented.
func (p *Predicate) NegateSrcAddresses() bool { return p.negSrc }

// DstAddresses returns the destination-address factor.
func (p *Predicate) DstAddresses() *DstAddressGroup { return p.dstAddrs }

// NegateDstAddresses reports whether the destination addresses are
// complemented.
func (p *Predicate) NegateDstAddresses() bool { return p.negDst }

// Services returns the service factor.
func (p *Predicate) Services() *ServiceGroup { return p.services }

// Applications returns the application factor.
func (p *Predicate) Applications() *ApplicationGroup { return p.apps }

// Users returns the user factor.
func (p *Predicate) Users() *UserGroup { return p.users }

// URLs returns the URL factor.
func (p *Predicate) URLs() *URLGroup { return p.urls }

// MakeBdd compiles the full condition. When the rule uses
// application-default services the raw service factor is elided: the
// application factor already conjoins the default services.
func (p *Predicate) MakeBdd() bdd.Node {
	e := p.doms.Engine()
	if p.any {
		return e.True()
	}
	cond := e.And(p.srcZones.MakeBdd(e), p.dstZones.MakeBdd(e))
	cond = e.And(cond, negateIf(e, p.srcAddrs.MakeBdd(e), p.negSrc))
	cond = e.And(cond, negateIf(e, p.dstAddrs.MakeBdd(e), p.negDst))
	if !p.services.IsAppServices() {
		cond = e.And(cond, p.services.MakeBdd(e))
	}
	cond = e.And(cond, p.apps.MakeBdd(e))
	cond = e.And(cond, p.users.MakeBdd(e))
	cond = e.And(cond, p.urls.MakeBdd(e))
	return cond
}

// MakeBddWith compiles a partial condition holding only the address and
// service factors plus the factors named in opts. When the application factor
// is omitted the service factor falls back to the raw services, or to
// the applications' default services for an application-default rule.
func (p *Predicate) MakeBddWith(opts BddOptions) bdd.Node {
	e := p.doms.Engine()
	cond := e.And(
		negateIf(e, p.srcAddrs.MakeBdd(e), p.negSrc),
		negateIf(e, p.dstAddrs.MakeBdd(e), p.negDst),
	)
	if opts.Contains(BddSrcZone) {
		cond = e.And(cond, p.srcZones.MakeBdd(e))
	}
	if opts.Contains(BddDstZone) {
		cond = e.And(cond, p.dstZones.MakeBdd(e))
	}
	if opts.Contains(BddApplication) {
		if !p.services.IsAppServices() {
			cond = e.And(cond, p.services.MakeBdd(e))
		}
		cond = e.And(cond, p.apps.MakeBdd(e))
	} else if p.services.IsAppServices() {
		cond = e.And(cond, p.apps.DefaultServices().MakeBdd(e))
	} else {
		cond = e.And(cond, p.services.MakeBdd(e))
	}
	if opts.Contains(BddUser) {
		cond = e.And(cond, p.users.MakeBdd(e))
	}
	if opts.Contains(BddURL) {
		cond = e.And(cond, p.urls.MakeBdd(e))
	}
	return cond
}

// IsAny reports whether the predicate matches every packet.
func (p *Predicate) IsAny() bool {
	e := p.doms.Engine()
	return p.any || e.IsTrue(p.MakeBdd())
}

// Clone deep-copies the predicate and its groups; atoms stay shared.
func (p *Predicate) Clone() *Predicate {
	c := NewPredicate(p.doms, p.opts,
		Sources{Zones: p.srcZones.Clone(), Addresses: p.srcAddrs.Clone(), Negate: p.negSrc},
		Destinations{Zones: p.dstZones.Clone(), Addresses: p.dstAddrs.Clone(), Negate: p.negDst},
		p.services.Clone(), p.apps.Clone(), p.users.Clone(), p.urls.Clone())
	c.any = p.any
	return c
}

// IsSymmetrical reports whether other mirrors this predicate: other's
// destinations equal (or, when strict is false, are contained in) this
// predicate's sources and vice versa, with matching services — and
// matching applications and users when the respective modeling is on.
//
// Source and destination coordinates live in disjoint domains, so the
// mirrored halves of other are first re-encoded into the opposite
// domains; comparing the original conditions directly would always be
// false.
func (p *Predicate) IsSymmetrical(other *Predicate, strict bool) bool {
	e := p.doms.Engine()

	symSrcZones := NewGroup[*SrcZone]("")
	for _, dz := range other.dstZones.Items() {
		symSrcZones.AddItem(NewSrcZoneRange(p.doms, "", dz.Interval()))
	}
	symDstZones := NewGroup[*DstZone]("")
	for _, sz := range other.srcZones.Items() {
		symDstZones.AddItem(NewDstZoneRange(p.doms, "", sz.Interval()))
	}

	symSrcAddrs := NewGroup[*SrcAddress]("")
	for _, da := range other.dstAddrs.Items() {
		symSrcAddrs.AddItem(NewSrcAddress(p.doms, "", da.Kind(), crossToSrc(da.Domain()), da.Interval()))
	}
	symDstAddrs := NewGroup[*DstAddress]("")
	for _, sa := range other.srcAddrs.Items() {
		symDstAddrs.AddItem(NewDstAddress(p.doms, "", sa.Kind(), crossToDst(sa.Domain()), sa.Interval()))
	}

	symSrcAddrBdd := negateIf(e, symSrcAddrs.MakeBdd(e), other.negSrc)
	symDstAddrBdd := negateIf(e, symDstAddrs.MakeBdd(e), other.negDst)
	srcAddrBdd := negateIf(e, p.srcAddrs.MakeBdd(e), p.negSrc)
	dstAddrBdd := negateIf(e, p.dstAddrs.MakeBdd(e), p.negDst)

	var symmetrical bool
	if strict {
		symmetrical = e.Equal(symSrcZones.MakeBdd(e), p.srcZones.MakeBdd(e)) &&
			e.Equal(symDstZones.MakeBdd(e), p.dstZones.MakeBdd(e)) &&
			e.Equal(symSrcAddrBdd, srcAddrBdd) &&
			e.Equal(symDstAddrBdd, dstAddrBdd) &&
			e.Equal(other.services.MakeBdd(e), p.services.MakeBdd(e))
	} else {
		symmetrical = e.Subset(symSrcZones.MakeBdd(e), p.srcZones.MakeBdd(e)) &&
			e.Subset(symDstZones.MakeBdd(e), p.dstZones.MakeBdd(e)) &&
			e.Subset(symSrcAddrBdd, srcAddrBdd) &&
			e.Subset(symDstAddrBdd, dstAddrBdd) &&
			e.Subset(other.services.MakeBdd(e), p.services.MakeBdd(e))
	}

	if symmetrical && p.opts.Contains(OptApplication) {
		symmetrical = e.Equal(p.apps.MakeBdd(e), other.apps.MakeBdd(e))
	}
	if symmetrical && p.opts.Contains(OptUser) {
		symmetrical = e.Equal(p.users.MakeBdd(e), other.users.MakeBdd(e))
	}

	return symmetrical
}

func crossToSrc(dt DomainType) DomainType {
	if dt == DstAddress4Domain {
		return SrcAddress4Domain
	}
	return SrcAddress6Domain
}

func crossToDst(dt DomainType) DomainType {
	if dt == SrcAddress4Domain {
		return DstAddress4Domain
	}
	return DstAddress6Domain
}

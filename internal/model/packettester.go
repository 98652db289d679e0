package model

// PacketTester decides whether a concrete test packet is accepted by an
// ACL, and by which rule.
type PacketTester struct {
	nw  *Network
	acl RuleList
}

// NewPacketTester builds a tester over the firewall's ACL.
func NewPacketTester(fw *Firewall) *PacketTester {
	return &PacketTester{nw: fw.Network(), acl: fw.ACL()}
}

// IsPacketAllowed traces a test packet through the ACL. Nil optional
// coordinates mean "any" and are left out of the compiled condition, so
// a query without zones matches rules regardless of their zones. The
// first rule whose condition contains the test condition decides; no
// match is an implicit deny.
func (t *PacketTester) IsPacketAllowed(
	srcZone *SrcZone, srcAddrs *SrcAddressGroup,
	dstZone *DstZone, dstAddrs *DstAddressGroup,
	services *ServiceGroup,
	apps *ApplicationGroup, users *UserGroup,
) (bool, *Rule) {
	doms := t.nw.Domains()
	e := doms.Engine()

	var opts BddOptions
	if srcZone != nil {
		opts |= BddSrcZone
	}
	if dstZone != nil {
		opts |= BddDstZone
	}
	if apps != nil {
		opts |= BddApplication
	}
	if users != nil {
		opts |= BddUser
	}

	if srcZone == nil {
		srcZone = AnySrcZone(doms)
	}
	if dstZone == nil {
		dstZone = AnyDstZone(doms)
	}
	if apps == nil {
		apps = NewApplicationGroup("", AnyApplication(doms))
	}
	if users == nil {
		users = NewGroup("", AnyUser(doms))
	}

	test := NewPredicate(doms, t.nw.Options(),
		Sources{Zones: NewGroup("", srcZone), Addresses: srcAddrs},
		Destinations{Zones: NewGroup("", dstZone), Addresses: dstAddrs},
		services, apps, users,
		NewGroup("", AnyURL(doms)),
	)
	testBdd := test.MakeBddWith(opts)

	for _, rule := range t.acl.Rules() {
		if e.Subset(testBdd, rule.Predicate().MakeBddWith(opts)) {
			return rule.Action() == ActionAllow, rule
		}
	}
	return false, nil
}

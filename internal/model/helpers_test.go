package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDomains builds a small domain registry; tests share the
// fixture shape the CLI uses, just with a smaller node table.
func newTestDomains(t *testing.T) *Domains {
	t.Helper()
	doms, err := NewDomains(200_000, 20_000)
	require.NoError(t, err)
	return doms
}

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	return NewNetwork(newTestDomains(t), NewModelOptions())
}

// addRule builds an enabled rule with any zones and the given address
// and service literals ("any" for unconstrained axes).
func addRule(t *testing.T, fw *Firewall, id int, action RuleAction, src, dst, svc string) *Rule {
	t.Helper()
	r, err := addRuleStatus(fw, id, StatusEnabled, action, src, dst, svc)
	require.NoError(t, err)
	return r
}

func addRuleStatus(fw *Firewall, id int, status RuleStatus, action RuleAction, src, dst, svc string) (*Rule, error) {
	doms := fw.Network().Domains()
	m := fw.IPModel()

	srcGroup := NewGroup[*SrcAddress]("")
	if src == AnyName {
		srcGroup.AddItem(AnySrcAddress(doms, m))
	} else {
		atom, err := ParseSrcAddress(doms, m, src, src, true)
		if err != nil {
			return nil, err
		}
		srcGroup.AddItem(atom)
	}

	dstGroup := NewGroup[*DstAddress]("")
	if dst == AnyName {
		dstGroup.AddItem(AnyDstAddress(doms, m))
	} else {
		atom, err := ParseDstAddress(doms, m, dst, dst, true)
		if err != nil {
			return nil, err
		}
		dstGroup.AddItem(atom)
	}

	svcGroup := NewServiceGroup("")
	if svc == AnyName {
		svcGroup.AddItem(AnyService(doms))
	} else {
		atom, err := ParseService(doms, svc, svc)
		if err != nil {
			return nil, err
		}
		svcGroup.AddItem(atom)
	}

	pred := NewPredicate(doms, EmptyOptions(),
		Sources{Zones: NewGroup("", AnySrcZone(doms)), Addresses: srcGroup},
		Destinations{Zones: NewGroup("", AnyDstZone(doms)), Addresses: dstGroup},
		svcGroup,
		NewApplicationGroup("", AnyApplication(doms)),
		NewGroup("", AnyUser(doms)),
		NewGroup("", AnyURL(doms)),
	)
	return fw.AddRule(id, "", status, action, pred)
}

// addZonedRule builds a rule constrained to one zone pair.
func addZonedRule(t *testing.T, fw *Firewall, id int, action RuleAction, srcZone, dstZone, src, dst, svc string) *Rule {
	t.Helper()
	doms := fw.Network().Domains()
	m := fw.IPModel()

	sz, err := fw.Network().Zones().SrcZone(srcZone)
	require.NoError(t, err)
	dz, err := fw.Network().Zones().DstZone(dstZone)
	require.NoError(t, err)

	srcAtom, err := ParseSrcAddress(doms, m, src, src, true)
	require.NoError(t, err)
	dstAtom, err := ParseDstAddress(doms, m, dst, dst, true)
	require.NoError(t, err)
	svcAtom, err := ParseService(doms, svc, svc)
	require.NoError(t, err)

	pred := NewPredicate(doms, EmptyOptions(),
		Sources{Zones: NewGroup("", sz), Addresses: NewGroup("", srcAtom)},
		Destinations{Zones: NewGroup("", dz), Addresses: NewGroup("", dstAtom)},
		NewServiceGroup("", svcAtom),
		NewApplicationGroup("", AnyApplication(doms)),
		NewGroup("", AnyUser(doms)),
		NewGroup("", AnyURL(doms)),
	)
	r, err := fw.AddRule(id, "", StatusEnabled, action, pred)
	require.NoError(t, err)
	return r
}

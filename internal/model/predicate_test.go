package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPredicate(t *testing.T, nw *Network, srcZone, dstZone, src, dst, svc string, negSrc, negDst bool) *Predicate {
	t.Helper()
	doms := nw.Domains()

	sz, err := nw.Zones().SrcZone(srcZone)
	require.NoError(t, err)
	dz, err := nw.Zones().DstZone(dstZone)
	require.NoError(t, err)
	srcAtom, err := ParseSrcAddress(doms, IP4Model, src, src, true)
	require.NoError(t, err)
	dstAtom, err := ParseDstAddress(doms, IP4Model, dst, dst, true)
	require.NoError(t, err)
	svcAtom := AnyService(doms)
	if svc != AnyName {
		svcAtom, err = ParseService(doms, svc, svc)
		require.NoError(t, err)
	}

	return NewPredicate(doms, nw.Options(),
		Sources{Zones: NewGroup("", sz), Addresses: NewGroup("", srcAtom), Negate: negSrc},
		Destinations{Zones: NewGroup("", dz), Addresses: NewGroup("", dstAtom), Negate: negDst},
		NewServiceGroup("", svcAtom),
		NewApplicationGroup("", AnyApplication(doms)),
		NewGroup("", AnyUser(doms)),
		NewGroup("", AnyURL(doms)),
	)
}

func TestPredicateClonePreservesSemantics(t *testing.T) {
	nw := newTestNetwork(t)
	e := nw.Domains().Engine()

	p := buildPredicate(t, nw, "lan", "wan", "10.0.0.0/8", "192.0.2.0/24", "tcp/443", true, false)
	c := p.Clone()
	assert.True(t, e.Equal(p.MakeBdd(), c.MakeBdd()))
	assert.Equal(t, p.NegateSrcAddresses(), c.NegateSrcAddresses())
	assert.Equal(t, p.NegateDstAddresses(), c.NegateDstAddresses())
}

func TestAnyPredicateIsTrue(t *testing.T) {
	nw := newTestNetwork(t)
	e := nw.Domains().Engine()
	p := AnyPredicate(nw.Domains(), IP4Model)
	assert.True(t, e.IsTrue(p.MakeBdd()))
	assert.True(t, p.IsAny())
}

func TestPredicateNegationComplements(t *testing.T) {
	nw := newTestNetwork(t)
	e := nw.Domains().Engine()

	plain := buildPredicate(t, nw, AnyName, AnyName, "10.0.0.0/8", "0.0.0.0/0", AnyName, false, false)
	negated := buildPredicate(t, nw, AnyName, AnyName, "10.0.0.0/8", "0.0.0.0/0", AnyName, true, false)

	assert.True(t, e.Disjoint(plain.MakeBdd(), negated.MakeBdd()))
	assert.True(t, e.IsTrue(e.Or(plain.MakeBdd(), negated.MakeBdd())))
}

func TestPredicateAppDefaultElidesServices(t *testing.T) {
	nw := newTestNetwork(t)
	nw.Options().Add(OptApplication)
	doms := nw.Domains()
	e := doms.Engine()

	https, err := ParseService(doms, "https", "tcp/443")
	require.NoError(t, err)
	defaults := NewAppDefaultServiceGroup(https)
	app := NewApplication(doms, "web", 7, defaults, nw.Options(), true)

	p := NewPredicate(doms, nw.Options(),
		Sources{Zones: NewGroup("", AnySrcZone(doms)), Addresses: NewGroup("", AnySrcAddress(doms, IP4Model))},
		Destinations{Zones: NewGroup("", AnyDstZone(doms)), Addresses: NewGroup("", AnyDstAddress(doms, IP4Model))},
		defaults,
		NewApplicationGroup("", app),
		NewGroup("", AnyUser(doms)),
		NewGroup("", AnyURL(doms)),
	)

	// The condition is the application conjunction: app id and its
	// default service, not the raw service column twice.
	appOnly := app.MakeBdd()
	assert.True(t, e.Equal(p.MakeBdd(), appOnly))
	assert.True(t, e.Subset(p.MakeBdd(), https.MakeBdd()))
}

func TestPredicateMakeBddWithOmitsZones(t *testing.T) {
	nw := newTestNetwork(t)
	e := nw.Domains().Engine()

	p := buildPredicate(t, nw, "lan", "wan", "10.0.0.0/8", "192.0.2.0/24", "tcp/80", false, false)
	full := p.MakeBddWith(BddSrcZone | BddDstZone)
	zoneless := p.MakeBddWith(0)

	assert.True(t, e.Subset(full, zoneless))
	assert.False(t, e.Equal(full, zoneless))
}

func TestPredicateSymmetryStrict(t *testing.T) {
	nw := newTestNetwork(t)

	a := buildPredicate(t, nw, "z1", "z2", "10.1.0.0/16", "10.2.0.0/16", "tcp/22", false, false)
	b := buildPredicate(t, nw, "z2", "z1", "10.2.0.0/16", "10.1.0.0/16", "tcp/22", false, false)
	c := buildPredicate(t, nw, "z1", "z2", "10.9.0.0/16", "10.2.0.0/16", "tcp/22", false, false)

	assert.True(t, a.IsSymmetrical(b, true))
	assert.True(t, b.IsSymmetrical(a, true))
	assert.False(t, a.IsSymmetrical(c, true))
}

func TestPredicateSymmetryNonStrictSubset(t *testing.T) {
	nw := newTestNetwork(t)

	a := buildPredicate(t, nw, "z1", "z2", "10.1.0.0/16", "10.2.0.0/16", "tcp/22", false, false)
	// b's mirrored halves are contained in a's halves.
	b := buildPredicate(t, nw, "z2", "z1", "10.2.1.0/24", "10.1.1.0/24", "tcp/22", false, false)

	assert.True(t, a.IsSymmetrical(b, false))
	assert.False(t, a.IsSymmetrical(b, true))
	// The subset relation is directional.
	assert.False(t, b.IsSymmetrical(a, false))
}

func TestPredicateSymmetryServiceMismatch(t *testing.T) {
	nw := newTestNetwork(t)

	a := buildPredicate(t, nw, "z1", "z2", "10.1.0.0/16", "10.2.0.0/16", "tcp/22", false, false)
	b := buildPredicate(t, nw, "z2", "z1", "10.2.0.0/16", "10.1.0.0/16", "tcp/23", false, false)
	assert.False(t, a.IsSymmetrical(b, true))
}

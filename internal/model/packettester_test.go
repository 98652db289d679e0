package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddrGroups(t *testing.T, doms *Domains, src, dst string) (*SrcAddressGroup, *DstAddressGroup) {
	t.Helper()
	s, err := ParseSrcAddress(doms, IP4Model, src, src, true)
	require.NoError(t, err)
	d, err := ParseDstAddress(doms, IP4Model, dst, dst, true)
	require.NoError(t, err)
	return NewGroup("", s), NewGroup("", d)
}

func TestPacketTraceFirstMatchWins(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	doms := nw.Domains()

	addRule(t, fw, 1, ActionDeny, "10.1.1.0/25", AnyName, AnyName)
	addRule(t, fw, 2, ActionAllow, "10.1.1.0/25", "192.168.1.0/24", "tcp/80")

	svc, err := ParseService(doms, "", "tcp/80")
	require.NoError(t, err)
	src, dst := testAddrGroups(t, doms, "10.1.1.8", "192.168.1.50")

	accepted, rule := NewPacketTester(fw).IsPacketAllowed(
		nil, src, nil, dst, NewServiceGroup("", svc), nil, nil)
	assert.False(t, accepted)
	require.NotNil(t, rule)
	assert.Equal(t, 1, rule.ID())
}

func TestPacketTraceAccepted(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	doms := nw.Domains()

	addRule(t, fw, 1, ActionAllow, "10.1.1.0/24", "192.168.1.0/24", "tcp/80")

	svc, err := ParseService(doms, "", "tcp/80")
	require.NoError(t, err)
	src, dst := testAddrGroups(t, doms, "10.1.1.8", "192.168.1.50")

	accepted, rule := NewPacketTester(fw).IsPacketAllowed(
		nil, src, nil, dst, NewServiceGroup("", svc), nil, nil)
	assert.True(t, accepted)
	require.NotNil(t, rule)
	assert.Equal(t, 1, rule.ID())
}

func TestPacketTraceImplicitDeny(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	doms := nw.Domains()

	addRule(t, fw, 1, ActionAllow, "10.1.1.0/24", AnyName, "tcp/80")

	svc, err := ParseService(doms, "", "udp/53")
	require.NoError(t, err)
	src, dst := testAddrGroups(t, doms, "172.16.0.1", "192.168.1.50")

	accepted, rule := NewPacketTester(fw).IsPacketAllowed(
		nil, src, nil, dst, NewServiceGroup("", svc), nil, nil)
	assert.False(t, accepted)
	assert.Nil(t, rule)
}

func TestPacketTraceZoneFilter(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	doms := nw.Domains()

	addZonedRule(t, fw, 1, ActionAllow, "lan", "wan", "10.1.1.0/24", "192.168.1.0/24", "tcp/80")

	svc, err := ParseService(doms, "", "tcp/80")
	require.NoError(t, err)
	src, dst := testAddrGroups(t, doms, "10.1.1.8", "192.168.1.50")

	lan, err := nw.Zones().SrcZone("lan")
	require.NoError(t, err)
	wan, err := nw.Zones().DstZone("wan")
	require.NoError(t, err)
	dmz, err := nw.Zones().SrcZone("dmz")
	require.NoError(t, err)

	// Matching zone pair is accepted.
	accepted, rule := NewPacketTester(fw).IsPacketAllowed(
		lan, src, wan, dst, NewServiceGroup("", svc), nil, nil)
	assert.True(t, accepted)
	require.NotNil(t, rule)

	// A packet from the wrong zone misses the rule.
	accepted, rule = NewPacketTester(fw).IsPacketAllowed(
		dmz, src, wan, dst, NewServiceGroup("", svc), nil, nil)
	assert.False(t, accepted)
	assert.Nil(t, rule)

	// Leaving the zones unspecified ignores the zone factors.
	accepted, _ = NewPacketTester(fw).IsPacketAllowed(
		nil, src, nil, dst, NewServiceGroup("", svc), nil, nil)
	assert.True(t, accepted)
}

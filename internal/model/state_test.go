package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkStateInvariants asserts A & D = false and A | D | R = I.
func checkStateInvariants(t *testing.T, s *State) {
	t.Helper()
	e := s.e
	assert.True(t, e.Disjoint(s.Accepted(), s.Denied()), "A and D overlap")
	union := e.Or(e.Or(s.Accepted(), s.Denied()), s.Remaining())
	assert.True(t, e.Equal(union, s.Input()), "A|D|R != I")
}

func TestStateUpdateInvariants(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	e := nw.Domains().Engine()

	r1 := addRule(t, fw, 1, ActionAllow, "10.0.0.0/8", AnyName, "tcp/80")
	r2 := addRule(t, fw, 2, ActionDeny, "10.1.0.0/16", AnyName, AnyName)
	r3 := addRule(t, fw, 3, ActionAllow, AnyName, AnyName, "udp/53")

	s := NewState(AnyPredicate(nw.Domains(), IP4Model))
	assert.True(t, e.IsTrue(s.Input()))
	assert.True(t, e.IsFalse(s.Accepted()))
	assert.True(t, e.IsFalse(s.Denied()))
	assert.True(t, e.IsTrue(s.Remaining()))

	prev := s.Remaining()
	for _, r := range []*Rule{r1, r2, r3} {
		s.Update(r.Action(), r.Predicate().MakeBdd())
		checkStateInvariants(t, s)
		// R is monotonically non-increasing.
		assert.True(t, e.Subset(s.Remaining(), prev))
		prev = s.Remaining()
	}

	// Processed returns the per-action set.
	assert.True(t, e.Equal(s.Processed(ActionAllow), s.Accepted()))
	assert.True(t, e.Equal(s.Processed(ActionDeny), s.Denied()))
}

func TestStateFirstMatchClaims(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	e := nw.Domains().Engine()

	deny := addRule(t, fw, 1, ActionDeny, "10.1.1.0/24", AnyName, AnyName)
	allow := addRule(t, fw, 2, ActionAllow, "10.1.1.0/24", AnyName, "tcp/80")

	s := NewState(AnyPredicate(nw.Domains(), IP4Model))
	s.Update(deny.Action(), deny.Predicate().MakeBdd())
	s.Update(allow.Action(), allow.Predicate().MakeBdd())

	// Everything the allow rule wanted had already been denied.
	assert.True(t, e.Disjoint(s.Accepted(), allow.Predicate().MakeBdd()))
	assert.True(t, e.Subset(allow.Predicate().MakeBdd(), s.Denied()))
}

func TestStateDenyAllEmptiesRemaining(t *testing.T) {
	nw := newTestNetwork(t)
	fw, err := nw.AddFirewall("fw", IP4Model)
	require.NoError(t, err)
	e := nw.Domains().Engine()

	denyAll := addRule(t, fw, 1, ActionDeny, AnyName, AnyName, AnyName)
	s := NewState(AnyPredicate(nw.Domains(), IP4Model))
	s.Update(denyAll.Action(), denyAll.Predicate().MakeBdd())
	assert.True(t, e.IsFalse(s.Remaining()))
	assert.True(t, e.IsTrue(s.Denied()))
}

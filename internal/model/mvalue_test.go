package model

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedCount is the satisfying-assignment count of a condition
// constraining one width-bit domain to n values, over every allocated
// variable.
func expectedCount(doms *Domains, width int, n int64) *big.Int {
	free := uint(doms.Engine().VarCount() - width)
	return new(big.Int).Lsh(big.NewInt(n), free)
}

func TestMvalueBddCountsValues(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()

	tests := []struct {
		name   string
		dt     DomainType
		lo, hi uint64
		values int64
	}{
		{"singleton", ProtocolDomain, 6, 6, 1},
		{"interval", DstTCPPortDomain, 80, 90, 11},
		{"port-range", DstUDPPortDomain, 1024, 2047, 1024},
		{"zone", SrcZoneDomain, 3, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width := doms.Width(tt.dt)
			m := NewMvalue(doms, tt.dt, NewRange(width, U128(tt.lo), U128(tt.hi)))
			count := e.Satcount(m.MakeBdd())
			assert.Equal(t, expectedCount(doms, width, tt.values).String(), count.String())
		})
	}
}

func TestMvalueFullRangeIsTrue(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()
	m := NewMvalue(doms, ProtocolDomain, doms.FullRange(ProtocolDomain))
	assert.True(t, e.IsTrue(m.MakeBdd()))
}

func TestMvalueBoundsAreInclusive(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()

	m := NewMvalue(doms, DstTCPPortDomain, NewRange(16, U128(80), U128(90)))
	cond := m.MakeBdd()

	inside := NewMvalue(doms, DstTCPPortDomain, Singleton(16, U128(80)))
	assert.True(t, e.Subset(inside.MakeBdd(), cond))
	upper := NewMvalue(doms, DstTCPPortDomain, Singleton(16, U128(90)))
	assert.True(t, e.Subset(upper.MakeBdd(), cond))
	outside := NewMvalue(doms, DstTCPPortDomain, Singleton(16, U128(91)))
	assert.True(t, e.Disjoint(outside.MakeBdd(), cond))
}

func TestMvalueDistinctDomainsDisjointVariables(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()

	// The same interval in the source and destination zone domains
	// compiles to conditions over disjoint variables: their conjunction
	// is satisfiable and neither contains the other.
	src := NewMvalue(doms, SrcZoneDomain, Singleton(10, U128(3)))
	dst := NewMvalue(doms, DstZoneDomain, Singleton(10, U128(3)))
	require.False(t, e.Equal(src.MakeBdd(), dst.MakeBdd()))
	assert.False(t, e.Subset(src.MakeBdd(), dst.MakeBdd()))
	assert.False(t, e.Disjoint(src.MakeBdd(), dst.MakeBdd()))
}

func TestMvalueWidthMismatchPanics(t *testing.T) {
	doms := newTestDomains(t)
	assert.Panics(t, func() {
		NewMvalue(doms, ProtocolDomain, NewRange(16, U128(0), U128(1)))
	})
}

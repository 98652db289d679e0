package bdd

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitsOf(v uint64) ConstBits {
	return func(i int) bool { return v>>uint(i)&1 == 1 }
}

func newTestEngine(t *testing.T, nvars int) *Engine {
	t.Helper()
	e, err := NewEngine(nvars, 10_000, 1_000)
	require.NoError(t, err)
	return e
}

func TestVecEqualConst(t *testing.T) {
	e := newTestEngine(t, 8)
	v := e.NewVec(8, 0)

	cond := e.VecEqualConst(v, bitsOf(0x2a))
	assert.Equal(t, big.NewInt(1).String(), e.Satcount(cond).String())
}

func TestVecInRangeCounts(t *testing.T) {
	e := newTestEngine(t, 8)
	v := e.NewVec(8, 0)

	tests := []struct {
		lo, hi uint64
		count  int64
	}{
		{0, 255, 256},
		{10, 20, 11},
		{0, 0, 1},
		{255, 255, 1},
		{128, 255, 128},
	}
	for _, tt := range tests {
		cond := e.VecInRange(v, bitsOf(tt.lo), bitsOf(tt.hi))
		assert.Equal(t, big.NewInt(tt.count).String(), e.Satcount(cond).String(),
			"range [%d, %d]", tt.lo, tt.hi)
	}
}

func TestVecRangeMembership(t *testing.T) {
	e := newTestEngine(t, 8)
	v := e.NewVec(8, 0)

	rng := e.VecInRange(v, bitsOf(10), bitsOf(20))
	for _, k := range []uint64{10, 15, 20} {
		point := e.VecEqualConst(v, bitsOf(k))
		assert.True(t, e.Subset(point, rng), "value %d should satisfy", k)
	}
	for _, k := range []uint64{0, 9, 21, 255} {
		point := e.VecEqualConst(v, bitsOf(k))
		assert.True(t, e.Disjoint(point, rng), "value %d should not satisfy", k)
	}
}

func TestEngineComparisons(t *testing.T) {
	e := newTestEngine(t, 4)

	a := e.Ithvar(0)
	b := e.Or(e.Ithvar(0), e.Ithvar(1))
	assert.True(t, e.Subset(a, b))
	assert.False(t, e.Subset(b, a))
	assert.True(t, e.Equal(a, e.Ithvar(0)))
	assert.True(t, e.Disjoint(a, e.And(e.Not(e.Ithvar(0)), e.Ithvar(1))))
	assert.True(t, e.IsTrue(e.Or(a, e.Not(a))))
	assert.True(t, e.IsFalse(e.And(a, e.Not(a))))
}

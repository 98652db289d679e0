package model

import (
	"fmt"

	"grimm.is/palisade/internal/bdd"
)

// Mvalue binds a range of integer values to a packet-field domain and
// compiles it to the condition lo <= var <= hi on the domain's
// bit-vector.
type Mvalue struct {
	doms *Domains
	dt   DomainType
	rng  Range
}

// NewMvalue builds an Mvalue. The range width must match the domain's.
func NewMvalue(doms *Domains, dt DomainType, rng Range) Mvalue {
	if rng.Width() != doms.Width(dt) {
		panic(fmt.Sprintf("model: range width %d does not fit domain %s", rng.Width(), dt))
	}
	return Mvalue{doms: doms, dt: dt, rng: rng}
}

// Domain returns the domain the value lives in.
func (m Mvalue) Domain() DomainType { return m.dt }

// Range returns the interval.
func (m Mvalue) Range() Range { return m.rng }

// MakeBdd compiles the value. A full-domain range short-circuits to
// true, a singleton to an equality test, everything else to the pair of
// bound comparisons.
func (m Mvalue) MakeBdd() bdd.Node {
	e := m.doms.Engine()
	v := m.doms.Var(m.dt)
	switch {
	case m.rng.IsFull():
		return e.True()
	case m.rng.IsSingleton():
		return e.VecEqualConst(v, m.rng.Lo().Bit)
	default:
		return e.VecInRange(v, m.rng.Lo().Bit, m.rng.Hi().Bit)
	}
}

func (m Mvalue) String() string { return m.rng.String() }

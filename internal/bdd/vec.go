package bdd

// Vec is a bit-vector variable: one BDD variable per bit, least
// significant bit first. The variables of a vector are contiguous in the
// engine's ordering; each packet-field domain owns exactly one Vec.
type Vec struct {
	bits []Node
}

// NewVec allocates a width-bit vector starting at variable offset.
func (e *Engine) NewVec(width, offset int) Vec {
	bits := make([]Node, width)
	for i := 0; i < width; i++ {
		bits[i] = e.Ithvar(offset + i)
	}
	return Vec{bits: bits}
}

// Width returns the number of bits in the vector.
func (v Vec) Width() int { return len(v.bits) }

// ConstBits supplies the bits of an unsigned constant, bit 0 being the
// least significant.
type ConstBits func(i int) bool

// VecEqualConst returns the condition v == k.
func (e *Engine) VecEqualConst(v Vec, k ConstBits) Node {
	cond := e.True()
	for i, bit := range v.bits {
		if k(i) {
			cond = e.And(cond, bit)
		} else {
			cond = e.And(cond, e.Not(bit))
		}
	}
	return cond
}

// VecGreaterEqualConst returns the condition k <= v.
//
// This is the bvec less-or-equal recurrence specialized for a constant
// left operand: scanning from the least significant bit,
// le' = (!a & b) | ((a <-> b) & le) with a the constant bit.
func (e *Engine) VecGreaterEqualConst(v Vec, k ConstBits) Node {
	cond := e.True()
	for i, bit := range v.bits {
		if k(i) {
			cond = e.And(bit, cond)
		} else {
			cond = e.Or(bit, cond)
		}
	}
	return cond
}

// VecLessEqualConst returns the condition v <= k.
func (e *Engine) VecLessEqualConst(v Vec, k ConstBits) Node {
	cond := e.True()
	for i, bit := range v.bits {
		if k(i) {
			cond = e.Or(e.Not(bit), cond)
		} else {
			cond = e.And(e.Not(bit), cond)
		}
	}
	return cond
}

// VecInRange returns the condition lo <= v <= hi.
func (e *Engine) VecInRange(v Vec, lo, hi ConstBits) Node {
	return e.And(e.VecGreaterEqualConst(v, lo), e.VecLessEqualConst(v, hi))
}

package model

import "grimm.is/palisade/internal/bdd"

// Relationship is the set-theoretic relation between two model nodes,
// decided on their compiled conditions.
type Relationship int

const (
	RelEqual Relationship = iota
	RelSubset
	RelSuperset
	RelDisjoint
	RelOverlap
)

func (r Relationship) String() string {
	switch r {
	case RelEqual:
		return "equal"
	case RelSubset:
		return "subset"
	case RelSuperset:
		return "superset"
	case RelDisjoint:
		return "disjoint"
	case RelOverlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// CompareNodes classifies the relation between two conditions.
func CompareNodes(e *bdd.Engine, a, b bdd.Node) Relationship {
	switch {
	case e.Equal(a, b):
		return RelEqual
	case e.IsTrue(e.Imp(a, b)):
		return RelSubset
	case e.IsTrue(e.Imp(b, a)):
		return RelSuperset
	case e.IsFalse(e.And(a, b)):
		return RelDisjoint
	default:
		return RelOverlap
	}
}

// negateIf complements n when cond is set.
func negateIf(e *bdd.Engine, n bdd.Node, cond bool) bdd.Node {
	if cond {
		return e.Not(n)
	}
	return n
}

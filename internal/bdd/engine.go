// Package bdd wraps the rudd binary decision diagram library behind the
// small surface the rule model needs: node allocation, the boolean
// operators, set-style comparisons and the bit-vector interval encoding.
//
// The engine is not re-entrant; all operations of one analysis pass must
// run on a single goroutine.
package bdd

import (
	"fmt"
	"math/big"
	"runtime"

	"github.com/dalzilio/rudd"
)

// Node is a reference into the engine's node table. Nodes are canonical:
// two nodes denote the same boolean function iff they are Equal.
type Node = rudd.Node

// Engine owns the rudd node table and the allocated variables.
type Engine struct {
	bdd   *rudd.BDD
	nvars int
}

// NewEngine initializes a node table with nvars variables.
func NewEngine(nvars, nodeSize, cacheSize int) (*Engine, error) {
	b, err := rudd.New(nvars, rudd.Nodesize(nodeSize), rudd.Cachesize(cacheSize))
	if err != nil {
		return nil, fmt.Errorf("bdd init: %w", err)
	}
	return &Engine{bdd: b, nvars: nvars}, nil
}

// VarCount returns the number of allocated variables.
func (e *Engine) VarCount() int { return e.nvars }

// True returns the constant true node.
func (e *Engine) True() Node { return e.bdd.True() }

// False returns the constant false node.
func (e *Engine) False() Node { return e.bdd.False() }

// Ithvar returns the node for variable i.
func (e *Engine) Ithvar(i int) Node { return e.bdd.Ithvar(i) }

// NIthvar returns the node for the negation of variable i.
func (e *Engine) NIthvar(i int) Node { return e.bdd.NIthvar(i) }

// Not returns the complement of n.
func (e *Engine) Not(n Node) Node { return e.bdd.Not(n) }

// And returns the conjunction of the given nodes.
func (e *Engine) And(ns ...Node) Node { return e.bdd.And(ns...) }

// Or returns the disjunction of the given nodes.
func (e *Engine) Or(ns ...Node) Node { return e.bdd.Or(ns...) }

// Imp returns the implication a -> b.
func (e *Engine) Imp(a, b Node) Node { return e.bdd.Imp(a, b) }

// IsTrue reports whether n is the constant true node.
func (e *Engine) IsTrue(n Node) bool { return *n == *e.bdd.True() }

// IsFalse reports whether n is the constant false node.
func (e *Engine) IsFalse(n Node) bool { return *n == *e.bdd.False() }

// Equal reports whether a and b denote the same boolean function.
func (e *Engine) Equal(a, b Node) bool { return *a == *b }

// Subset reports whether every assignment satisfying a also satisfies b.
func (e *Engine) Subset(a, b Node) bool {
	return e.Equal(a, b) || e.IsTrue(e.bdd.Imp(a, b))
}

// Disjoint reports whether a and b share no satisfying assignment.
func (e *Engine) Disjoint(a, b Node) bool {
	return e.IsFalse(e.bdd.And(a, b))
}

// Overlaps reports whether a and b share at least one satisfying assignment.
func (e *Engine) Overlaps(a, b Node) bool {
	return !e.Disjoint(a, b)
}

// Satcount returns the number of satisfying assignments of n over all
// allocated variables.
func (e *Engine) Satcount(n Node) *big.Int {
	return e.bdd.Satcount(n)
}

// Stats returns a human-readable description of the node table.
func (e *Engine) Stats() string {
	return e.bdd.Stats()
}

// Collect drops dead nodes. rudd reclaims unreferenced nodes through the
// Go runtime, so this only nudges the collector and reports the table state.
func (e *Engine) Collect() string {
	runtime.GC()
	return e.bdd.Stats()
}

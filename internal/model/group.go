package model

import (
	"strings"

	"grimm.is/palisade/internal/bdd"
)

// Atom is implemented by every leaf model object a group can hold.
type Atom interface {
	comparable
	Name() string
	String() string
	MakeBdd() bdd.Node
}

type member[T Atom] struct {
	item T
	sub  *Group[T]
}

// Group is a hierarchical set of atoms of one category. Members are
// either leaf atoms or sub-groups; insertion is idempotent and a group
// can never reach itself through its sub-groups. Groups do not own their
// atoms; the object store does.
type Group[T Atom] struct {
	name    string
	members []member[T]
	items   map[T]struct{}
	groups  map[*Group[T]]struct{}
}

// NewGroup allocates a group holding the given atoms.
func NewGroup[T Atom](name string, atoms ...T) *Group[T] {
	g := &Group[T]{
		name:   name,
		items:  make(map[T]struct{}),
		groups: make(map[*Group[T]]struct{}),
	}
	for _, a := range atoms {
		g.AddItem(a)
	}
	return g
}

// Name returns the group name.
func (g *Group[T]) Name() string { return g.name }

// AddItem inserts a leaf atom; duplicates are ignored. A zero atom is a
// programming error.
func (g *Group[T]) AddItem(item T) {
	var zero T
	if item == zero {
		panic("model: nil group member")
	}
	if _, dup := g.items[item]; dup {
		return
	}
	g.items[item] = struct{}{}
	g.members = append(g.members, member[T]{item: item})
}

// AddGroup inserts a sub-group; duplicates are ignored. Inserting a
// group that transitively contains the receiver is a programming error.
func (g *Group[T]) AddGroup(sub *Group[T]) {
	if sub == nil {
		panic("model: nil group member")
	}
	if sub == g || sub.ContainsGroup(g) {
		panic("model: cycle in group " + g.name)
	}
	if _, dup := g.groups[sub]; dup {
		return
	}
	g.groups[sub] = struct{}{}
	g.members = append(g.members, member[T]{sub: sub})
}

// Contains reports whether item is in this group or any sub-group.
func (g *Group[T]) Contains(item T) bool {
	if _, ok := g.items[item]; ok {
		return true
	}
	for _, m := range g.members {
		if m.sub != nil && m.sub.Contains(item) {
			return true
		}
	}
	return false
}

// ContainsGroup reports whether sub is reachable from this group.
func (g *Group[T]) ContainsGroup(sub *Group[T]) bool {
	if _, ok := g.groups[sub]; ok {
		return true
	}
	for _, m := range g.members {
		if m.sub != nil && m.sub.ContainsGroup(sub) {
			return true
		}
	}
	return false
}

// Names returns the names of the direct members, in insertion order.
func (g *Group[T]) Names() []string {
	names := make([]string, 0, len(g.members))
	for _, m := range g.members {
		if m.sub != nil {
			names = append(names, m.sub.name)
		} else {
			names = append(names, m.item.Name())
		}
	}
	return names
}

// Items returns every atom in this group and its sub-groups, uniqued in
// depth-first insertion order.
func (g *Group[T]) Items() []T {
	var items []T
	seen := make(map[T]struct{})
	g.Parse(func(item T) {
		if _, dup := seen[item]; !dup {
			seen[item] = struct{}{}
			items = append(items, item)
		}
	})
	return items
}

// Parse calls fn on every leaf atom, depth first.
func (g *Group[T]) Parse(fn func(T)) {
	for _, m := range g.members {
		if m.sub != nil {
			m.sub.Parse(fn)
		} else {
			fn(m.item)
		}
	}
}

// Empty reports whether the group holds no atoms at all.
func (g *Group[T]) Empty() bool { return len(g.Items()) == 0 }

// Size returns the number of leaf atoms, counting duplicates reachable
// through several sub-groups once per path.
func (g *Group[T]) Size() int {
	n := 0
	for _, m := range g.members {
		if m.sub != nil {
			n += m.sub.Size()
		} else {
			n++
		}
	}
	return n
}

// Clone deep-copies the group structure. Atoms are shared, sub-groups
// are copied.
func (g *Group[T]) Clone() *Group[T] {
	c := NewGroup[T](g.name)
	for _, m := range g.members {
		if m.sub != nil {
			c.AddGroup(m.sub.Clone())
		} else {
			c.AddItem(m.item)
		}
	}
	return c
}

// MakeBdd folds the disjunction of the member conditions. An "any"
// member short-circuits the fold to true.
func (g *Group[T]) MakeBdd(e *bdd.Engine) bdd.Node {
	cond := e.False()
	for _, m := range g.members {
		var n bdd.Node
		if m.sub != nil {
			n = m.sub.MakeBdd(e)
		} else {
			n = m.item.MakeBdd()
		}
		if e.IsTrue(n) {
			return n
		}
		cond = e.Or(cond, n)
	}
	return cond
}

// String returns the direct member names joined with commas.
func (g *Group[T]) String() string { return strings.Join(g.Names(), ",") }

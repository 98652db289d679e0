package model

import "grimm.is/palisade/internal/bdd"

// State tracks the traffic partition while walking an ACL: I is the
// input condition (normally true), A the traffic accepted so far, D the
// traffic denied so far and R = I & !(A | D) the remaining traffic no
// rule has claimed yet.
//
// After every update: A & D = false, A | D | R = I, and R never grows.
type State struct {
	e *bdd.Engine
	i bdd.Node
	a bdd.Node
	d bdd.Node
	r bdd.Node
}

// NewState initializes the state from the input predicate.
func NewState(pred *Predicate) *State {
	e := pred.doms.Engine()
	input := pred.MakeBdd()
	return &State{e: e, i: input, a: e.False(), d: e.False(), r: input}
}

// Update claims the remaining part of p for the given action.
func (s *State) Update(action RuleAction, p bdd.Node) {
	claimed := s.e.And(s.r, p)
	if action == ActionAllow {
		s.a = s.e.Or(s.a, claimed)
	} else {
		s.d = s.e.Or(s.d, claimed)
	}
	s.r = s.e.And(s.i, s.e.Not(s.e.Or(s.a, s.d)))
}

// Input returns I.
func (s *State) Input() bdd.Node { return s.i }

// Accepted returns A.
func (s *State) Accepted() bdd.Node { return s.a }

// Denied returns D.
func (s *State) Denied() bdd.Node { return s.d }

// Remaining returns R.
func (s *State) Remaining() bdd.Node { return s.r }

// Processed returns A for allow and D for deny.
func (s *State) Processed(action RuleAction) bdd.Node {
	if action == ActionAllow {
		return s.a
	}
	return s.d
}

package model

import "grimm.is/palisade/internal/bdd"

// PolicyRelationship is the outcome of comparing two rule lists: the
// relation between their allowed sets and between their denied sets.
type PolicyRelationship struct {
	Allowed Relationship
	Denied  Relationship
}

// ComparePolicies reduces both lists to their (allowed, denied) traffic
// sets and compares them independently. Two lists admitting exactly the
// same traffic compare {equal, equal} regardless of how their rules are
// phrased.
func ComparePolicies(e *bdd.Engine, a, b RuleList) PolicyRelationship {
	allowedA, deniedA := policyBdd(e, a)
	allowedB, deniedB := policyBdd(e, b)
	return PolicyRelationship{
		Allowed: CompareNodes(e, allowedA, allowedB),
		Denied:  CompareNodes(e, deniedA, deniedB),
	}
}

// policyBdd folds the enabled rules in order. Subtracting the opposite
// set before adding a rule's predicate enforces first-match semantics:
// traffic a preceding rule already claimed never re-enters.
func policyBdd(e *bdd.Engine, list RuleList) (allowed, denied bdd.Node) {
	allowed, denied = e.False(), e.False()
	for _, r := range list.Rules() {
		if r.Status() != StatusEnabled {
			continue
		}
		p := r.Predicate().MakeBdd()
		if r.Action() == ActionAllow {
			allowed = e.Or(allowed, e.And(p, e.Not(denied)))
		} else {
			denied = e.Or(denied, e.And(p, e.Not(allowed)))
		}
	}
	return allowed, denied
}

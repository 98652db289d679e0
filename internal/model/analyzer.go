package model

import "grimm.is/palisade/internal/bdd"

// InterruptFunc is polled at the top of each outer-loop iteration of a
// long pass; returning true aborts the pass with ErrInterrupted.
type InterruptFunc func() bool

// NeverInterrupt is the callback for uninterruptible callers.
func NeverInterrupt() bool { return false }

// Progress observes the anomaly pass; the CLI uses it to print ticks
// during long runs.
type Progress interface {
	Tick(n int)
	Done()
}

// progressThreshold is the ACL size above which the anomaly pass
// reports progress.
const progressThreshold = 20

// RulePair is an ordered pair of rules emitted by the symmetry checker.
type RulePair struct {
	First  *Rule
	Second *Rule
}

// Bddcache memoizes compiled rule predicates within one analysis pass,
// keyed by rule id.
type Bddcache map[int]bdd.Node

// Analyzer answers structural questions about one firewall's ACL.
type Analyzer struct {
	acl      RuleList
	doms     *Domains
	ipModel  IPModel
	progress Progress
}

// NewAnalyzer builds an analyzer over the firewall's enabled rules.
func NewAnalyzer(fw *Firewall) *Analyzer {
	return &Analyzer{
		acl:     fw.ACL(),
		doms:    fw.Network().Domains(),
		ipModel: fw.IPModel(),
	}
}

// SetProgress installs the optional progress observer.
func (a *Analyzer) SetProgress(p Progress) { a.progress = p }

// ACL returns the analyzed rule view.
func (a *Analyzer) ACL() RuleList { return a.acl }

// CheckAny returns the allow rules that open every service to at least
// the probed destination addresses.
func (a *Analyzer) CheckAny(dstAddrs *DstAddressGroup) RuleList {
	e := a.doms.Engine()
	probe := dstAddrs.MakeBdd(e)
	return a.acl.Filter(func(r *Rule) bool {
		pred := r.Predicate()
		return r.Action() == ActionAllow &&
			e.Subset(probe, negateIf(e, pred.DstAddresses().MakeBdd(e), pred.NegateDstAddresses())) &&
			pred.Services().IsAnyServices(e)
	})
}

// CheckDeny returns the deny-all rules.
func (a *Analyzer) CheckDeny() RuleList {
	anyPred := AnyPredicate(a.doms, a.ipModel)
	e := a.doms.Engine()
	anyBdd := anyPred.MakeBdd()
	return a.acl.Filter(func(r *Rule) bool {
		return r.Action() == ActionDeny && e.Equal(r.Predicate().MakeBdd(), anyBdd)
	})
}

// CheckSymmetry returns every ordered pair (i, j), i < j, of same-action
// rules whose predicates mirror each other. With strict unset the
// mirrored condition only needs to be contained instead of equal.
func (a *Analyzer) CheckSymmetry(strict bool, interrupt InterruptFunc) ([]RulePair, error) {
	var pairs []RulePair
	rules := a.acl.Rules()
	for i, rule := range rules {
		for _, other := range rules[i+1:] {
			if interrupt() {
				return nil, ErrInterrupted
			}
			if rule.Action() == other.Action() &&
				rule.Predicate().IsSymmetrical(other.Predicate(), strict) {
				pairs = append(pairs, RulePair{First: rule, Second: other})
			}
		}
	}
	return pairs, nil
}

// CheckAnomaly walks the ACL once, classifying every rule against the
// accepted/denied/remaining state of the rules before it. A trailing
// deny-all rule is not classified. The report also records whether the
// ACL fails to cover the whole packet space.
func (a *Analyzer) CheckAnomaly(interrupt InterruptFunc) (*RuleAnomalies, error) {
	anomalies := &RuleAnomalies{}

	state := NewState(AnyPredicate(a.doms, a.ipModel))
	cache := make(Bddcache, a.acl.Len())

	showProgress := a.progress != nil && a.acl.Len() > progressThreshold
	loop := 0

	e := a.doms.Engine()
	for _, rule := range a.acl.Rules() {
		if interrupt() {
			return nil, ErrInterrupted
		}

		cache[rule.ID()] = rule.Predicate().MakeBdd()

		if !(rule.IsDenyAll() && a.acl.IsLast(rule)) {
			if details := a.checkRule(rule, state, cache); details != nil {
				anomalies.Items = append(anomalies.Items, &RuleAnomaly{Rule: rule, Details: details})
			}
		}

		state.Update(rule.Action(), cache[rule.ID()])

		if showProgress {
			loop++
			a.progress.Tick(loop)
		}
	}

	anomalies.MissingDenyAll = !e.IsFalse(state.Remaining())

	if showProgress {
		a.progress.Done()
	}
	return anomalies, nil
}

// checkRule classifies one rule against the state accumulated so far.
func (a *Analyzer) checkRule(rule *Rule, state *State, cache Bddcache) *AnomalyDetails {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]

	if e.Subset(predicateBdd, state.Remaining()) {
		// The rule contributes new coverage.
		return nil
	}
	if e.IsFalse(state.Remaining()) || e.Disjoint(predicateBdd, state.Remaining()) {
		return a.analyzeFullyMasked(rule, state, cache)
	}
	return a.analyzePartiallyMasked(rule, state, cache)
}

func (a *Analyzer) analyzeFullyMasked(rule *Rule, state *State, cache Bddcache) *AnomalyDetails {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]

	if e.Subset(predicateBdd, state.Processed(rule.Action().Not())) {
		// Entirely hidden by opposite-action rules, alone or combined.
		return newShadowed(a.findOverlapping(rule, rule.Action().Not(), cache))
	}
	if e.Disjoint(predicateBdd, state.Processed(rule.Action().Not())) {
		// Entirely hidden by same-action rules.
		return newFullRedundant(a.findOverlapping(rule, rule.Action(), cache))
	}

	// Mixed cover: part of the packets were already handled with the
	// same action, part with the opposite one.
	correlated := a.findOverlapping(rule, rule.Action().Not(), cache)
	redundant := a.findOverlapping(rule, rule.Action(), cache)
	return newRedundantOrCorrelated(redundant, correlated)
}

func (a *Analyzer) analyzePartiallyMasked(rule *Rule, state *State, cache Bddcache) *AnomalyDetails {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]

	if matching := a.findOtherIsSubset(rule, rule.Action().Not(), cache); matching.Len() > 0 {
		return newGeneralization(matching)
	}

	if e.Overlaps(predicateBdd, state.Processed(rule.Action())) {
		if matching := a.findOtherIsSubset(rule, rule.Action(), cache); matching.Len() > 0 {
			return newPartialRedundant(matching)
		}
	}

	if e.Overlaps(predicateBdd, state.Processed(rule.Action().Not())) {
		if matching := a.findOverlapping(rule, rule.Action().Not(), cache); matching.Len() > 0 {
			return newCorrelated(matching)
		}
	}

	return nil
}

// findIsSubset returns the earlier rules with the given action that
// contain the rule's predicate.
func (a *Analyzer) findIsSubset(rule *Rule, action RuleAction, cache Bddcache) RuleList {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]
	return a.acl.FilterBefore(rule, func(other *Rule) bool {
		return other.Action() == action && e.Subset(predicateBdd, cache[other.ID()])
	})
}

// findOtherIsSubset returns the earlier rules with the given action
// whose predicate is contained in the rule's.
func (a *Analyzer) findOtherIsSubset(rule *Rule, action RuleAction, cache Bddcache) RuleList {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]
	return a.acl.FilterBefore(rule, func(other *Rule) bool {
		return other.Action() == action && e.Subset(cache[other.ID()], predicateBdd)
	})
}

// findOverlapping returns the earlier rules with the given action whose
// predicate intersects the rule's.
func (a *Analyzer) findOverlapping(rule *Rule, action RuleAction, cache Bddcache) RuleList {
	e := a.doms.Engine()
	predicateBdd := cache[rule.ID()]
	return a.acl.FilterBefore(rule, func(other *Rule) bool {
		return other.Action() == action && e.Overlaps(predicateBdd, cache[other.ID()])
	})
}

package model

import (
	"fmt"

	"grimm.is/palisade/internal/bdd"
)

// RuleList is an ordered, non-owning view over a firewall's rules.
// Filter combinators are pure: each returns a new list and preserves
// rule order. The view must not outlive the owning firewall.
type RuleList struct {
	rules []*Rule
}

// NewRuleList builds a view over the given rules.
func NewRuleList(rules ...*Rule) RuleList {
	return RuleList{rules: rules}
}

// Rules exposes the underlying slice for iteration.
func (l RuleList) Rules() []*Rule { return l.rules }

// Len returns the number of rules in the view.
func (l RuleList) Len() int { return len(l.rules) }

// At returns the i-th rule.
func (l RuleList) At(i int) *Rule { return l.rules[i] }

// Append adds a rule reference to the view.
func (l *RuleList) Append(r *Rule) { l.rules = append(l.rules, r) }

// Filter returns the rules satisfying pred, in order.
func (l RuleList) Filter(pred func(*Rule) bool) RuleList {
	out := RuleList{rules: make([]*Rule, 0, len(l.rules))}
	for _, r := range l.rules {
		if pred(r) {
			out.rules = append(out.rules, r)
		}
	}
	return out
}

// FilterAction keeps the rules with the given action.
func (l RuleList) FilterAction(a RuleAction) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Action() == a })
}

// FilterStatus keeps the rules with the given status.
func (l RuleList) FilterStatus(s RuleStatus) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Status() == s })
}

// FilterZones keeps the rules whose zone factors contain the given
// source and destination zones.
func (l RuleList) FilterZones(e *bdd.Engine, src *SrcZone, dst *DstZone) RuleList {
	return l.Filter(func(r *Rule) bool {
		return e.Subset(src.MakeBdd(), r.Predicate().SrcZones().MakeBdd(e)) &&
			e.Subset(dst.MakeBdd(), r.Predicate().DstZones().MakeBdd(e))
	})
}

// FilterZonePair applies FilterZones when the pair is set and returns
// the list unchanged otherwise.
func (l RuleList) FilterZonePair(e *bdd.Engine, zones *ZonePair) RuleList {
	if zones == nil {
		return l
	}
	return l.FilterZones(e, zones.Src, zones.Dst)
}

// FilterSrcAddress keeps the rules naming the given source address.
func (l RuleList) FilterSrcAddress(a *SrcAddress) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().SrcAddresses().Contains(a) })
}

// FilterDstAddress keeps the rules naming the given destination address.
func (l RuleList) FilterDstAddress(a *DstAddress) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().DstAddresses().Contains(a) })
}

// FilterService keeps the rules naming the given service.
func (l RuleList) FilterService(s *Service) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().Services().Contains(s) })
}

// FilterApplication keeps the rules naming the given application.
func (l RuleList) FilterApplication(a *Application) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().Applications().Contains(a) })
}

// FilterUser keeps the rules naming the given user.
func (l RuleList) FilterUser(u *User) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().Users().Contains(u) })
}

// FilterURL keeps the rules naming the given URL.
func (l RuleList) FilterURL(u *URL) RuleList {
	return l.Filter(func(r *Rule) bool { return r.Predicate().URLs().Contains(u) })
}

// FilterServices keeps the rules whose service factor contains every
// given service.
func (l RuleList) FilterServices(e *bdd.Engine, services *ServiceGroup) RuleList {
	return l.Filter(func(r *Rule) bool {
		return e.Subset(services.MakeBdd(e), r.Predicate().Services().MakeBdd(e))
	})
}

// FilterApplications keeps the rules allowing every given application,
// and — when services is non-empty — every given service. For an
// application-default rule each (application, services) pair is checked
// independently: the rule is kept only if every synthetic pair is
// contained in the rule's application factor.
func (l RuleList) FilterApplications(e *bdd.Engine, apps *ApplicationGroup, services *ServiceGroup) RuleList {
	if services == nil || services.Empty() {
		return l.Filter(func(r *Rule) bool {
			return e.Subset(apps.MakeBdd(e), r.Predicate().Applications().MakeBdd(e))
		})
	}
	return l.Filter(func(r *Rule) bool {
		pred := r.Predicate()
		if r.IsDefaultAppSvc() {
			for _, app := range apps.Items() {
				svcCopy := NewServiceGroup("")
				for _, svc := range services.Items() {
					svcCopy.AddItem(svc)
				}
				pair := app.WithServices(svcCopy)
				if !e.Subset(pair.MakeBdd(), pred.Applications().MakeBdd(e)) {
					return false
				}
			}
			return true
		}
		return e.Subset(apps.MakeBdd(e), pred.Applications().MakeBdd(e)) &&
			e.Subset(services.MakeBdd(e), pred.Services().MakeBdd(e))
	})
}

// FilterBefore returns the rules preceding sentinel that satisfy pred.
// The walk stops at the first occurrence of sentinel, exclusive.
func (l RuleList) FilterBefore(sentinel *Rule, pred func(*Rule) bool) RuleList {
	out := RuleList{rules: make([]*Rule, 0, len(l.rules))}
	for _, r := range l.rules {
		if r == sentinel {
			return out
		}
		if pred(r) {
			out.rules = append(out.rules, r)
		}
	}
	return out
}

// ContainsRule reports whether the view holds r.
func (l RuleList) ContainsRule(r *Rule) bool {
	for _, x := range l.rules {
		if x == r {
			return true
		}
	}
	return false
}

// IsLast reports whether r is the final rule of the view.
func (l RuleList) IsLast(r *Rule) bool {
	return len(l.rules) > 0 && l.rules[len(l.rules)-1] == r
}

// IDList returns the rule ids in order.
func (l RuleList) IDList() []int {
	ids := make([]int, 0, len(l.rules))
	for _, r := range l.rules {
		ids = append(ids, r.ID())
	}
	return ids
}

// HaveNames reports whether at least one rule is named.
func (l RuleList) HaveNames() bool {
	for _, r := range l.rules {
		if r.Name() != "" {
			return true
		}
	}
	return false
}

// HaveNegate reports whether at least one rule negates an address
// factor.
func (l RuleList) HaveNegate() bool {
	for _, r := range l.rules {
		p := r.Predicate()
		if p.NegateSrcAddresses() || p.NegateDstAddresses() {
			return true
		}
	}
	return false
}

// Counters tallies the actions in a view.
type Counters struct {
	Allowed int
	Denied  int
}

func (c Counters) String() string {
	return fmt.Sprintf("%d/%d", c.Allowed, c.Denied)
}

// GetCounters counts the allowed and denied rules.
func (l RuleList) GetCounters() Counters {
	var c Counters
	for _, r := range l.rules {
		if r.Action() == ActionAllow {
			c.Allowed++
		} else {
			c.Denied++
		}
	}
	return c
}

// CreateTable renders the view as a rule table with the columns selected
// by opts.
func (l RuleList) CreateTable(opts RuleOutputOptions) *Table {
	var headers []string
	headers = append(headers, "id")
	if opts.RuleName {
		headers = append(headers, "name")
	}
	headers = append(headers, "action", "src.zone", "dst.zone")
	if opts.NegateAddress {
		headers = append(headers, "src.negate")
	}
	if opts.AddressName {
		headers = append(headers, "src.addr")
	}
	headers = append(headers, "src.ip")
	if opts.NegateAddress {
		headers = append(headers, "dst.negate")
	}
	if opts.AddressName {
		headers = append(headers, "dst.addr")
	}
	headers = append(headers, "dst.ip")
	if opts.ServiceName {
		headers = append(headers, "svc name")
	}
	headers = append(headers, "svc")
	if opts.ApplicationName {
		headers = append(headers, "app")
	}
	if opts.UserName {
		headers = append(headers, "usr")
	}
	if opts.URL {
		headers = append(headers, "url")
	}

	t := NewTable(headers, nil)
	for _, r := range l.rules {
		r.WriteToRow(t.AddRow(), opts)
	}
	return t
}

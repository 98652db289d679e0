package model

import (
	"fmt"
	"sort"
)

// Firewall owns an ordered rule set. Rule evaluation order is strictly
// the insertion order; the ACL is the enabled subset in that order.
type Firewall struct {
	name    string
	nw      *Network
	ipModel IPModel
	rules   []*Rule
	byID    map[int]*Rule
}

func newFirewall(name string, nw *Network, ipModel IPModel) *Firewall {
	return &Firewall{
		name:    name,
		nw:      nw,
		ipModel: ipModel,
		byID:    make(map[int]*Rule),
	}
}

// Name returns the firewall name.
func (f *Firewall) Name() string { return f.name }

// Network returns the owning network.
func (f *Firewall) Network() *Network { return f.nw }

// IPModel returns the address model the firewall's rules are encoded in.
func (f *Firewall) IPModel() IPModel { return f.ipModel }

// AddRule appends a rule. Ids must be positive and unique within the
// firewall; the firewall takes ownership of the predicate.
func (f *Firewall) AddRule(id int, name string, status RuleStatus, action RuleAction, pred *Predicate) (*Rule, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid rule id %d: must be positive", id)
	}
	if _, dup := f.byID[id]; dup {
		return nil, &DuplicateRuleIDError{ID: id}
	}
	r := &Rule{fw: f, id: id, name: name, status: status, action: action, pred: pred}
	f.rules = append(f.rules, r)
	f.byID[id] = r
	return r, nil
}

// GetRule returns the rule with the given id.
func (f *Firewall) GetRule(id int) (*Rule, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, &RuleNotFoundError{ID: id}
}

// Clear removes every rule.
func (f *Firewall) Clear() {
	f.rules = nil
	f.byID = make(map[int]*Rule)
}

// Rules returns a view over all rules in insertion order.
func (f *Firewall) Rules() RuleList {
	return NewRuleList(f.rules...)
}

// ACL returns the enabled subset of the rules, in order.
func (f *Firewall) ACL() RuleList {
	return f.Rules().FilterStatus(StatusEnabled)
}

// MakeOutputOptions derives the table columns a rule listing needs:
// names and negation columns appear only when some rule uses them, and
// the optional axes only when their modeling is enabled.
func (f *Firewall) MakeOutputOptions(showObjectNames bool) RuleOutputOptions {
	rules := f.Rules()
	return RuleOutputOptions{
		RuleName:        rules.HaveNames(),
		AddressName:     showObjectNames,
		ServiceName:     showObjectNames,
		ApplicationName: f.nw.Options().Contains(OptApplication),
		UserName:        f.nw.Options().Contains(OptUser),
		URL:             f.nw.Options().Contains(OptURL),
		NegateAddress:   rules.HaveNegate(),
	}
}

// Info summarizes the firewall as a table.
func (f *Firewall) Info() *Table {
	t := NewTable([]string{"property", "value"}, nil)
	acl := f.ACL()
	counters := acl.GetCounters()

	row := t.AddRow()
	row.Cell().Append("name")
	row.Cell().Append(f.name)

	row = t.AddRow()
	row.Cell().Append("address model")
	row.Cell().Append(f.ipModel.String())

	row = t.AddRow()
	row.Cell().Append("rules")
	row.Cell().Append(fmt.Sprint(len(f.rules)))

	row = t.AddRow()
	row.Cell().Append("enabled rules")
	row.Cell().Append(fmt.Sprint(acl.Len()))

	row = t.AddRow()
	row.Cell().Append("allowed/denied")
	row.Cell().Append(counters.String())

	row = t.AddRow()
	row.Cell().Append("zones")
	row.Cell().Append(fmt.Sprint(len(f.zoneNames())))

	return t
}

func (f *Firewall) zoneNames() []string {
	seen := make(map[string]struct{})
	for _, r := range f.rules {
		for _, z := range r.Predicate().SrcZones().Items() {
			seen[z.Name()] = struct{}{}
		}
		for _, z := range r.Predicate().DstZones().Items() {
			seen[z.Name()] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// copyInto deep-copies every rule (including predicates and groups)
// into dst.
func (f *Firewall) copyInto(dst *Firewall) {
	for _, r := range f.rules {
		cp := &Rule{
			fw:     dst,
			id:     r.id,
			name:   r.name,
			status: r.status,
			action: r.action,
			pred:   r.pred.Clone(),
		}
		dst.rules = append(dst.rules, cp)
		dst.byID[cp.id] = cp
	}
}

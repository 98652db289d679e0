package model

import "fmt"

// RuleAction is what the firewall does with a matching packet.
type RuleAction int

const (
	ActionDeny RuleAction = iota
	ActionAllow
)

// Not returns the opposite action.
func (a RuleAction) Not() RuleAction {
	if a == ActionAllow {
		return ActionDeny
	}
	return ActionAllow
}

func (a RuleAction) String() string {
	if a == ActionAllow {
		return "allow"
	}
	return "deny"
}

// ParseRuleAction parses the loader spellings of an action.
func ParseRuleAction(s string) (RuleAction, bool) {
	switch s {
	case "allow", "accept", "permit":
		return ActionAllow, true
	case "deny", "drop", "reject":
		return ActionDeny, true
	default:
		return ActionDeny, false
	}
}

// RuleStatus enables or disables a rule without removing it.
type RuleStatus int

const (
	StatusDisabled RuleStatus = iota
	StatusEnabled
)

func (s RuleStatus) String() string {
	if s == StatusEnabled {
		return "enabled"
	}
	return "disabled"
}

// ParseRuleStatus parses the loader spellings of a status.
func ParseRuleStatus(s string) (RuleStatus, bool) {
	switch s {
	case "enabled", "yes", "1", "":
		return StatusEnabled, true
	case "disabled", "no", "0":
		return StatusDisabled, true
	default:
		return StatusDisabled, false
	}
}

// Rule is one access-control entry: an id, a status, an action and the
// predicate describing the matched traffic. The rule exclusively owns
// its predicate; only the status is mutable.
type Rule struct {
	fw     *Firewall
	id     int
	name   string
	status RuleStatus
	action RuleAction
	pred   *Predicate
}

// ID returns the rule id, unique within its firewall.
func (r *Rule) ID() int { return r.id }

// Name returns the optional rule name.
func (r *Rule) Name() string { return r.name }

// Status returns whether the rule takes part in the ACL.
func (r *Rule) Status() RuleStatus { return r.status }

// SetStatus flips the rule between enabled and disabled.
func (r *Rule) SetStatus(s RuleStatus) { r.status = s }

// Action returns the rule's verdict.
func (r *Rule) Action() RuleAction { return r.action }

// Predicate returns the matched-traffic condition.
func (r *Rule) Predicate() *Predicate { return r.pred }

// Firewall returns the owning firewall.
func (r *Rule) Firewall() *Firewall { return r.fw }

// IsDefaultAppSvc reports whether the rule opens only its applications'
// intrinsic services.
func (r *Rule) IsDefaultAppSvc() bool { return r.pred.Services().IsAppServices() }

// IsDenyAll reports whether the rule denies every packet.
func (r *Rule) IsDenyAll() bool {
	return r.action == ActionDeny && r.pred.IsAny()
}

// Compare classifies the relation between two rules' predicates. Rules
// compare by condition, never by id.
func (r *Rule) Compare(other *Rule) Relationship {
	e := r.pred.doms.Engine()
	return CompareNodes(e, r.pred.MakeBdd(), other.pred.MakeBdd())
}

// RuleOutputOptions selects the optional columns of rule tables.
type RuleOutputOptions struct {
	RuleName        bool
	AddressName     bool
	ServiceName     bool
	ApplicationName bool
	UserName        bool
	URL             bool
	NegateAddress   bool
}

// WriteToRow appends one table row describing the rule.
func (r *Rule) WriteToRow(row *Row, opts RuleOutputOptions) {
	row.Cell().Append(fmt.Sprint(r.id))
	if opts.RuleName {
		row.Cell().Append(r.name)
	}
	row.Cell().Append(r.action.String())
	writeAtomNames(row.Cell(), r.pred.SrcZones().Items())
	writeAtomNames(row.Cell(), r.pred.DstZones().Items())
	if opts.NegateAddress {
		row.Cell().Append(yesNo(r.pred.NegateSrcAddresses()))
	}
	if opts.AddressName {
		writeAtomNames(row.Cell(), r.pred.SrcAddresses().Items())
	}
	writeAtomValues(row.Cell(), r.pred.SrcAddresses().Items())
	if opts.NegateAddress {
		row.Cell().Append(yesNo(r.pred.NegateDstAddresses()))
	}
	if opts.AddressName {
		writeAtomNames(row.Cell(), r.pred.DstAddresses().Items())
	}
	writeAtomValues(row.Cell(), r.pred.DstAddresses().Items())
	if opts.ServiceName {
		writeServiceNames(row.Cell(), r.pred.Services())
	}
	writeAtomValues(row.Cell(), r.pred.Services().Items())
	if opts.ApplicationName {
		writeAtomNames(row.Cell(), r.pred.Applications().Items())
	}
	if opts.UserName {
		writeAtomNames(row.Cell(), r.pred.Users().Items())
	}
	if opts.URL {
		writeAtomNames(row.Cell(), r.pred.URLs().Items())
	}
}

// CreateTable builds the attribute/name/value table of a single rule.
func (r *Rule) CreateTable(opts RuleOutputOptions) *Table {
	t := NewTable([]string{"attribute", "name", "value"}, nil)

	row := t.AddRow()
	row.Cell().Append("name")
	row.Cell().Append(r.name)
	row.Cell().Append(fmt.Sprint(r.id))

	row = t.AddRow()
	row.Cell().Append("status")
	row.Cell().Append(r.status.String())
	row.Cell().Append(fmt.Sprint(int(r.status)))

	row = t.AddRow()
	row.Cell().Append("action")
	row.Cell().Append(r.action.String())
	row.Cell().Append(fmt.Sprint(int(r.action)))

	row = t.AddRow()
	row.Cell().Append("src.zone")
	writeAtomNames(row.Cell(), r.pred.SrcZones().Items())
	writeAtomValues(row.Cell(), r.pred.SrcZones().Items())

	row = t.AddRow()
	row.Cell().Append("dst.zone")
	writeAtomNames(row.Cell(), r.pred.DstZones().Items())
	writeAtomValues(row.Cell(), r.pred.DstZones().Items())

	row = t.AddRow()
	if r.pred.NegateSrcAddresses() {
		row.Cell().Append("!src.addr")
	} else {
		row.Cell().Append("src.addr")
	}
	writeAtomNames(row.Cell(), r.pred.SrcAddresses().Items())
	writeAtomValues(row.Cell(), r.pred.SrcAddresses().Items())

	row = t.AddRow()
	if r.pred.NegateDstAddresses() {
		row.Cell().Append("!dst.addr")
	} else {
		row.Cell().Append("dst.addr")
	}
	writeAtomNames(row.Cell(), r.pred.DstAddresses().Items())
	writeAtomValues(row.Cell(), r.pred.DstAddresses().Items())

	row = t.AddRow()
	row.Cell().Append("services")
	writeServiceNames(row.Cell(), r.pred.Services())
	writeAtomValues(row.Cell(), r.pred.Services().Items())

	if opts.ApplicationName {
		row = t.AddRow()
		row.Cell().Append("applications")
		writeAtomNames(row.Cell(), r.pred.Applications().Items())
		writeAtomValues(row.Cell(), r.pred.Applications().Items())
	}
	if opts.UserName {
		row = t.AddRow()
		row.Cell().Append("users")
		writeAtomNames(row.Cell(), r.pred.Users().Items())
		writeAtomValues(row.Cell(), r.pred.Users().Items())
	}
	if opts.URL {
		row = t.AddRow()
		row.Cell().Append("urls")
		writeAtomNames(row.Cell(), r.pred.URLs().Items())
		writeAtomValues(row.Cell(), r.pred.URLs().Items())
	}

	return t
}

func writeAtomNames[T Atom](c *Cell, items []T) {
	for _, item := range items {
		c.AppendLine(item.Name())
	}
}

func writeAtomValues[T Atom](c *Cell, items []T) {
	for _, item := range items {
		c.AppendLine(item.String())
	}
}

// writeServiceNames prints "app-default" for an application-default
// service column instead of the member names.
func writeServiceNames(c *Cell, g *ServiceGroup) {
	if g.IsAppServices() {
		c.Append("app-default")
		return
	}
	writeAtomNames(c, g.Items())
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

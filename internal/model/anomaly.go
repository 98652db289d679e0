package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AnomalyScope tells whether the anomalous rule is entirely or partly
// covered by earlier rules.
type AnomalyScope int

const (
	FullyMaskedRule AnomalyScope = iota
	PartiallyMaskedRule
)

func (s AnomalyScope) String() string {
	switch s {
	case FullyMaskedRule:
		return "Fully masked"
	case PartiallyMaskedRule:
		return "Partially masked"
	default:
		return "not available"
	}
}

// AnomalyLevel grades a finding.
type AnomalyLevel int

const (
	AnomalyWarning AnomalyLevel = iota
	AnomalyError
)

func (l AnomalyLevel) String() string {
	switch l {
	case AnomalyWarning:
		return "warning"
	case AnomalyError:
		return "error"
	default:
		return "not available"
	}
}

// AnomalyType is the classification of a finding.
type AnomalyType int

const (
	AnomalyShadowing AnomalyType = iota
	AnomalyRedundancy
	AnomalyCorrelation
	AnomalyGeneralization
	AnomalyRedundancyOrCorrelation
)

// AnomalyDetails is the tagged variant describing one finding. Refs
// holds the earlier rules that triggered it; for a redundancy-or-
// correlation finding Refs holds the redundant part and Correlated the
// correlated part.
type AnomalyDetails struct {
	Scope      AnomalyScope
	Level      AnomalyLevel
	Type       AnomalyType
	Refs       RuleList
	Correlated RuleList
}

func newShadowed(refs RuleList) *AnomalyDetails {
	return &AnomalyDetails{Scope: FullyMaskedRule, Level: AnomalyError, Type: AnomalyShadowing, Refs: refs}
}

func newFullRedundant(refs RuleList) *AnomalyDetails {
	return &AnomalyDetails{Scope: FullyMaskedRule, Level: AnomalyError, Type: AnomalyRedundancy, Refs: refs}
}

func newPartialRedundant(refs RuleList) *AnomalyDetails {
	return &AnomalyDetails{Scope: PartiallyMaskedRule, Level: AnomalyError, Type: AnomalyRedundancy, Refs: refs}
}

func newCorrelated(refs RuleList) *AnomalyDetails {
	return &AnomalyDetails{Scope: PartiallyMaskedRule, Level: AnomalyWarning, Type: AnomalyCorrelation, Refs: refs}
}

func newGeneralization(refs RuleList) *AnomalyDetails {
	return &AnomalyDetails{Scope: PartiallyMaskedRule, Level: AnomalyWarning, Type: AnomalyGeneralization, Refs: refs}
}

func newRedundantOrCorrelated(redundant, correlated RuleList) *AnomalyDetails {
	return &AnomalyDetails{
		Scope:      FullyMaskedRule,
		Level:      AnomalyError,
		Type:       AnomalyRedundancyOrCorrelation,
		Refs:       redundant,
		Correlated: correlated,
	}
}

// writeTo renders the finding into a details cell, phrased from the
// anomalous rule's point of view.
func (d *AnomalyDetails) writeTo(c *Cell, rule *Rule) {
	plural := func(l RuleList) string {
		if l.Len() > 1 {
			return "combined rules"
		}
		return "rule"
	}
	switch d.Type {
	case AnomalyShadowing:
		c.AppendLine("Shadowed rule")
		verdict := "accepted"
		if rule.Action() == ActionAllow {
			verdict = "denied"
		}
		c.Append(fmt.Sprintf("packets are %s by %s %s", verdict, plural(d.Refs), idList(d.Refs)))
	case AnomalyRedundancy:
		if d.Scope == FullyMaskedRule {
			c.AppendLine("Redundant rule")
			verdict := "denied"
			if rule.Action() == ActionAllow {
				verdict = "accepted"
			}
			c.Append(fmt.Sprintf("packets are %s by %s %s", verdict, plural(d.Refs), idList(d.Refs)))
		} else {
			qualifier := "is"
			if d.Refs.Len() > 1 {
				qualifier = "are all"
			}
			c.AppendLine(fmt.Sprintf("Rule%s %s", pluralSuffix(d.Refs), idList(d.Refs)))
			c.Append(fmt.Sprintf("%s redundant with this rule", qualifier))
		}
	case AnomalyCorrelation:
		c.AppendLine("Correlated rule")
		verdict := "accepted"
		if rule.Action() == ActionAllow {
			verdict = "denied"
		}
		c.Append(fmt.Sprintf("part of packets are %s by %s %s", verdict, plural(d.Refs), idList(d.Refs)))
	case AnomalyGeneralization:
		c.Append(fmt.Sprintf("Generalization of rule%s %s", pluralSuffix(d.Refs), idList(d.Refs)))
	case AnomalyRedundancyOrCorrelation:
		if d.Correlated.Len() > 0 {
			c.AppendLine("Redundant or correlated rule")
		} else {
			c.AppendLine("Redundant rule")
		}
		sameVerdict, otherVerdict := "denied", "allowed"
		if rule.Action() == ActionAllow {
			sameVerdict, otherVerdict = "allowed", "denied"
		}
		c.Append(fmt.Sprintf("part of packets are %s by %s %s", sameVerdict, plural(d.Refs), idList(d.Refs)))
		if d.Correlated.Len() > 0 {
			c.AppendLine("")
			c.Append(fmt.Sprintf("part of packets are %s by %s %s", otherVerdict, plural(d.Correlated), idList(d.Correlated)))
		}
	}
}

func pluralSuffix(l RuleList) string {
	if l.Len() > 1 {
		return "s"
	}
	return ""
}

func idList(l RuleList) string {
	parts := make([]string, 0, l.Len())
	for _, id := range l.IDList() {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

// RuleAnomaly ties a finding to the rule it was raised on.
type RuleAnomaly struct {
	Rule    *Rule
	Details *AnomalyDetails
}

// RuleAnomalies is the report of one anomaly pass, in ACL order.
type RuleAnomalies struct {
	Items          []*RuleAnomaly
	MissingDenyAll bool
}

// CreateTable renders the report. Columns: id, optional rule name,
// zones, scope, level and the wrapped details text.
func (a *RuleAnomalies) CreateTable(showRuleName bool) *Table {
	headers := []string{"id", "name", "src.zone", "dst.zone", "anomaly", "level", "details"}
	wrap := []int{0, 0, 0, 0, 0, 0, 40}
	if !showRuleName {
		headers = append(headers[:1], headers[2:]...)
		wrap = wrap[1:]
	}

	t := NewTable(headers, wrap)
	for _, item := range a.Items {
		row := t.AddRow()
		row.Cell().Append(fmt.Sprint(item.Rule.ID()))
		if showRuleName {
			row.Cell().Append(item.Rule.Name())
		}
		writeAtomNames(row.Cell(), item.Rule.Predicate().SrcZones().Items())
		writeAtomNames(row.Cell(), item.Rule.Predicate().DstZones().Items())
		row.Cell().Append(item.Details.Scope.String())
		row.Cell().Append(item.Details.Level.String())
		item.Details.writeTo(row.Cell(), item.Rule)
	}
	return t
}

package model

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned by long-running passes when the caller's
// interrupt callback reports true. Partial results are discarded.
var ErrInterrupted = errors.New("interrupted")

// InvalidAddressError reports an address token that failed to parse.
type InvalidAddressError struct {
	Token  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%q is not a valid address", e.Token)
	}
	return fmt.Sprintf("%q is not a valid address: %s", e.Token, e.Reason)
}

// InvalidServiceError reports a protocol/port token that failed to parse.
type InvalidServiceError struct {
	Token string
}

func (e *InvalidServiceError) Error() string {
	return fmt.Sprintf("%q is not a valid protocol/port specification", e.Token)
}

// DomainOverflowError reports an id allocation past the width of a
// domain. The policy is too large for the configured model.
type DomainOverflowError struct {
	Domain string
}

func (e *DomainOverflowError) Error() string {
	return fmt.Sprintf("domain %s exhausted: too many distinct objects for the configured model", e.Domain)
}

// DuplicateRuleIDError reports two rules sharing an id within a firewall.
type DuplicateRuleIDError struct {
	ID int
}

func (e *DuplicateRuleIDError) Error() string {
	return fmt.Sprintf("duplicate rule id %d", e.ID)
}

// RuleNotFoundError reports a lookup of a rule id that does not exist.
type RuleNotFoundError struct {
	ID int
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("rule %d not found", e.ID)
}

// FirewallNotFoundError reports a lookup of an unknown firewall name.
type FirewallNotFoundError struct {
	Name string
}

func (e *FirewallNotFoundError) Error() string {
	return fmt.Sprintf("firewall %q not found", e.Name)
}

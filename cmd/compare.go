package cmd

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/model"
	"grimm.is/palisade/internal/ostore"
	"grimm.is/palisade/internal/shell"
)

// RunCompare loads two policies and decides whether they admit the same
// traffic. When they differ, a unified diff of the rule tables is
// printed on top of the set relationship. It returns false when the
// policies are not equivalent.
func RunCompare(configFile, policyA, policyB, objectsFile string) (bool, error) {
	settings, err := config.Load(configFile)
	if err != nil {
		return false, err
	}
	log := newLogger(settings)

	session, err := shell.New(settings, log)
	if err != nil {
		return false, err
	}
	defer session.Close()

	if objectsFile != "" {
		if err := session.Store().LoadCatalog(objectsFile); err != nil {
			return false, err
		}
	}

	reader := ostore.NewPolicyReader(session.Store(), log)
	load := func(name, path string) (*model.Firewall, error) {
		fw, err := session.Network().AddFirewall(name, settings.IPAddressModel())
		if err != nil {
			return nil, err
		}
		status, err := reader.LoadFile(path, fw)
		if err != nil {
			return nil, err
		}
		if !status.OK() {
			return nil, fmt.Errorf("%s: %s", path, strings.Join(status.Summary(), "; "))
		}
		return fw, nil
	}

	fwA, err := load("a", policyA)
	if err != nil {
		return false, err
	}
	fwB, err := load("b", policyB)
	if err != nil {
		return false, err
	}

	rel := model.ComparePolicies(session.Network().Domains().Engine(), fwA.ACL(), fwB.ACL())
	fmt.Printf("allowed: %s\ndenied:  %s\n", rel.Allowed, rel.Denied)

	equivalent := rel.Allowed == model.RelEqual && rel.Denied == model.RelEqual
	if equivalent {
		fmt.Println("the policies admit exactly the same traffic")
		return true, nil
	}

	diff := difflib.UnifiedDiff{
		A:        ruleLines(fwA),
		B:        ruleLines(fwB),
		FromFile: policyA,
		ToFile:   policyB,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return false, err
	}
	fmt.Print(text)
	return false, nil
}

// ruleLines flattens a firewall's rules into one comparable line each.
func ruleLines(fw *model.Firewall) []string {
	var lines []string
	for _, r := range fw.Rules().Rules() {
		pred := r.Predicate()
		lines = append(lines, fmt.Sprintf("%d %s %s %s -> %s %s svc=%s\n",
			r.ID(), r.Status(), r.Action(),
			pred.SrcAddresses(), pred.DstAddresses(),
			pred.DstZones(), pred.Services()))
	}
	return lines
}
